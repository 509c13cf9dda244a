package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/delaneyj/signalbind/pkg/component"
	"github.com/delaneyj/signalbind/pkg/observer"
	"github.com/delaneyj/signalbind/pkg/reactively"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

func demo(ctx context.Context, cmd *cli.Command) error {
	if err := setupLogging(cmd); err != nil {
		return err
	}
	steps := int(cmd.Uint(stepsKey))

	rctx := &reactively.ReactiveContext{}
	host := component.NewHost(rctx)
	s := newStore(rctx)

	counterMount, err := host.Mount(newCounterClass(s), nil)
	if err != nil {
		return fmt.Errorf("mount counter: %w", err)
	}
	summary, err := observer.Observe(Summary)
	if err != nil {
		return fmt.Errorf("observe summary: %w", err)
	}
	summaryMount, err := host.Mount(summary, component.Props{"store": s, "class": "summary"})
	if err != nil {
		return fmt.Errorf("mount summary: %w", err)
	}

	c, ok := component.As[counter](counterMount.Instance())
	if !ok {
		return fmt.Errorf("counter instance has unexpected type %T", counterMount.Instance())
	}

	tbl := table.NewWriter()
	tbl.SetTitle("Observed components")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"step", "count", "rendered", "counter", "summary", "parity flips"})

	row := func(step string, rendered int) {
		reactions, _ := observer.ActiveReactions(counterMount.Instance())
		tbl.AppendRow(table.Row{
			step,
			s.count.Peek(),
			rendered,
			counterMount.HTML(),
			summaryMount.HTML(),
			fmt.Sprintf("%s (%d active)", strings.Join(c.parity, " "), reactions),
		})
	}
	row("mount", 0)

	for i := 0; i < steps; i++ {
		s.count.Update(func(n int) int { return n + 1 })
		row(fmt.Sprintf("increment %d", i+1), host.Flush())
	}

	s.title.Write("taps")
	row("rename", host.Flush())

	counterMount.Unmount()
	summaryMount.Unmount()
	s.count.Update(func(n int) int { return n + 1 })
	row("after unmount", host.Flush())

	tbl.Render()
	log.Printf("%d renders of the counter, %d of the summary", counterMount.Renders(), summaryMount.Renders())
	return nil
}
