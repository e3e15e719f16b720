package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/jhoicas/estoque-os-api/internal/application/reconciliation"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// errDivergences indica que la conciliación terminó con hallazgos.
var errDivergences = errors.New("conciliación con divergencias")

type options struct {
	asJSON  bool
	correct bool
	actor   string
	timeout time.Duration
}

// auditor es la parte del guardián que usa el comando.
type auditor interface {
	Run(ctx context.Context) (*reconciliation.Report, error)
	CorrectItem(ctx context.Context, itemID, actorID string) (*reconciliation.LedgerDivergence, error)
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	flagSet.BoolVar(&opts.asJSON, "json", false, "imprimir el informe en JSON")
	flagSet.BoolVar(&opts.correct, "correct-items", false, "ajustar al libro las cantidades divergentes de ítems")
	flagSet.StringVar(&opts.actor, "actor", "", "usuario registrado como autor de las correcciones")
	flagSet.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "tiempo máximo de la ejecución")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if opts.correct && opts.actor == "" {
		return options{}, fmt.Errorf("--correct-items requiere --actor")
	}
	if opts.timeout <= 0 {
		return options{}, fmt.Errorf("--timeout debe ser positivo")
	}
	return opts, nil
}

// execute corre la conciliación, corrige ítems si se pidió e imprime el informe.
// Devuelve errDivergences si quedan hallazgos sin corregir.
func execute(ctx context.Context, g auditor, opts options, out io.Writer, log *logger.Logger) error {
	rep, err := g.Run(ctx)
	if err != nil {
		return err
	}

	remaining := len(rep.Divergences)
	if opts.correct {
		for _, d := range rep.Divergences {
			if d.Kind != reconciliation.KindItemQuantity {
				continue
			}
			if _, err := g.CorrectItem(ctx, d.EntityID, opts.actor); err != nil {
				log.Error().Err(err).Str("item_id", d.EntityID).Msg("no se pudo corregir el ítem")
				continue
			}
			remaining--
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		printReport(out, rep)
	}

	if remaining > 0 {
		return errDivergences
	}
	return nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDivergences):
		return 2
	default:
		return 1
	}
}

func printReport(out io.Writer, rep *reconciliation.Report) {
	fmt.Fprintf(out, "ítems: %d  equipos: %d  divergencias: %d  (%s)\n",
		rep.ItemsChecked, rep.UnitsChecked, len(rep.Divergences), rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	if rep.Clean() {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIPO\tID\tALMACENADO\tCALCULADO")
	for _, d := range rep.Divergences {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Kind, d.EntityID, d.Stored, d.Computed)
	}
	w.Flush()
}
