// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Command coffeebench generates load against a coffee store, either
// directly through a storage backend or through a running coffeed
// server.
package main

import (
	"context"
	"os"
	"runtime"

	"github.com/diffeo/go-coffee/backend"
	"github.com/diffeo/go-coffee/coffee"
	"github.com/diffeo/go-coffee/restclient"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var bench benchWork

var addCoffees = cli.Command{
	Name:  "add",
	Usage: "create many coffees",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "count",
			Value: 100,
			Usage: "number of coffees to create",
		},
	},
	Action: func(c *cli.Context) error {
		created, err := bench.Add(context.Background(), c.Int("count"))
		logrus.WithField("created", created).Info("Added coffees")
		return err
	},
}

var raceUpdates = cli.Command{
	Name:  "race",
	Usage: "update one coffee from many workers at the same version",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "id",
			Usage: "coffee to update (default: create a new one)",
		},
		cli.IntFlag{
			Name:  "rounds",
			Value: 1,
			Usage: "race this many times",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		id := c.Int("id")
		if id == 0 {
			created, err := bench.Coffees.Create(ctx, "race")
			if err != nil {
				return err
			}
			id = created.ID
		}
		for round := 1; round <= c.Int("rounds"); round++ {
			result, err := bench.Race(ctx, id)
			logrus.WithFields(logrus.Fields{
				"id":        id,
				"round":     round,
				"version":   result.Version,
				"successes": result.Successes,
				"conflicts": result.Conflicts,
				"errors":    result.Errors,
			}).Info("Raced updates")
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var clearCoffees = cli.Command{
	Name:  "clear",
	Usage: "delete all of the coffees",
	Action: func(c *cli.Context) error {
		deleted, err := bench.Clear(context.Background())
		logrus.WithField("deleted", deleted).Info("Cleared coffees")
		return err
	},
}

func main() {
	backend := backend.Backend{Implementation: "memory"}
	app := cli.NewApp()
	app.Name = "coffeebench"
	app.Usage = "benchmark the coffee store"
	app.Flags = []cli.Flag{
		cli.GenericFlag{
			Name:   "backend",
			Value:  &backend,
			EnvVar: "COFFEE_BACKEND",
			Usage:  "impl[:address] of coffee storage backend",
		},
		cli.StringFlag{
			Name:   "url",
			EnvVar: "COFFEE_URL",
			Usage:  "URL of a coffeed server; overrides --backend",
		},
		cli.IntFlag{
			Name:  "concurrency",
			Value: runtime.NumCPU(),
			Usage: "run this many jobs in parallel",
		},
	}
	app.Commands = []cli.Command{
		addCoffees,
		raceUpdates,
		clearCoffees,
	}
	app.Before = func(c *cli.Context) (err error) {
		if url := c.String("url"); url != "" {
			bench.Coffees, err = restclient.New(url)
		} else {
			var store coffee.Store
			store, err = backend.Store()
			if err == nil {
				bench.Coffees = coffee.NewService(store)
			}
		}
		if err != nil {
			return err
		}
		bench.Concurrency = c.Int("concurrency")
		return bench.check()
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithField("err", err).Fatal("coffeebench failed")
	}
}
