package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/signalbind/pkg/component"
	"github.com/delaneyj/signalbind/pkg/observer"
	"github.com/delaneyj/signalbind/pkg/reactively"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

var reactionCounts = []int{0, 1, 10, 100}

type benchRow struct {
	reactions int
	effects   int64
	total     time.Duration
	mount     *tachymeter.Metrics
	update    *tachymeter.Metrics
	unmount   *tachymeter.Metrics
}

func bench(ctx context.Context, cmd *cli.Command) error {
	if err := setupLogging(cmd); err != nil {
		return err
	}
	iters := int(cmd.Uint(iterationsKey))
	if iters == 0 {
		return fmt.Errorf("bench: %s must be positive", iterationsKey)
	}

	log.Printf("Starting observer benchmark, please wait...")
	defer log.Printf("Finished observer benchmark")

	tbl := table.NewWriter()
	tbl.SetTitle("Observed class lifecycle")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	var rows []benchRow
	for _, n := range reactionCounts {
		log.Printf("Running %d reactions, %d iterations", n, iters)
		row := benchClass(n, iters)
		rows = append(rows, row)
		for _, phase := range []struct {
			name string
			m    *tachymeter.Metrics
		}{
			{"mount", row.mount},
			{"update", row.update},
			{"unmount", row.unmount},
		} {
			tbl.AppendRow(table.Row{
				fmt.Sprintf("%s: %d reactions", phase.name, n),
				phase.m.Time.Avg,
				phase.m.Time.Min,
				phase.m.Time.P75,
				phase.m.Time.P99,
				phase.m.Time.Max,
			})
		}
	}
	tbl.Render()

	summary := tablewriter.NewWriter(os.Stdout)
	summary.SetHeader([]string{"reactions", "cycles", "effects", "time", "cycles/s"})
	for _, row := range rows {
		rate := float64(iters) / row.total.Seconds()
		summary.Append([]string{
			fmt.Sprint(row.reactions),
			humanize.Comma(int64(iters)),
			humanize.Comma(row.effects),
			fmt.Sprint(row.total),
			humanize.Comma(int64(rate)),
		})
	}
	summary.Render()
	return nil
}

type benchItem struct {
	value *reactively.Reactive[int]
}

func (b *benchItem) Render() *component.Node {
	return component.Textf("%d", b.value.Read())
}

// benchClass mounts, updates and unmounts an observed class carrying n
// reactions, iters times.
func benchClass(n, iters int) benchRow {
	rctx := &reactively.ReactiveContext{}
	host := component.NewHost(rctx)
	value := reactively.Signal(rctx, 0)

	row := benchRow{reactions: n}
	cls := component.NewClass("BenchItem", func(component.Props) *benchItem {
		return &benchItem{value: value}
	})
	for i := 0; i < n; i++ {
		observer.Watch(cls,
			func(self *benchItem, r *reactively.Reaction) int {
				return self.value.Read() + i
			},
			func(self *benchItem, newValue, oldValue int, r *reactively.Reaction) {
				row.effects++
			},
		)
	}
	observed := observer.ObserveClass(cls)

	mountTach := tachymeter.New(&tachymeter.Config{Size: iters})
	updateTach := tachymeter.New(&tachymeter.Config{Size: iters})
	unmountTach := tachymeter.New(&tachymeter.Config{Size: iters})

	begin := time.Now()
	for i := 0; i < iters; i++ {
		start := time.Now()
		m, err := host.Mount(observed, nil)
		if err != nil {
			log.Panic(err)
		}
		mountTach.AddTime(time.Since(start))

		start = time.Now()
		value.Update(func(v int) int { return v + 1 })
		host.Flush()
		updateTach.AddTime(time.Since(start))

		start = time.Now()
		m.Unmount()
		unmountTach.AddTime(time.Since(start))
	}
	row.total = time.Since(begin)

	row.mount = mountTach.Calc()
	row.update = updateTach.Calc()
	row.unmount = unmountTach.Calc()
	return row
}
