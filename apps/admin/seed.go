package main

import (
	"context"
	"fmt"

	"github.com/trezcool/aula/storage/seed"
)

func (cli *commandLine) seed() error {
	if err := seed.Load(context.Background(), cli.dir, cli.store, cli.att, nowFunc()); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d groups and %d students loaded\n", len(seed.Groups), len(seed.Students))
	return nil
}
