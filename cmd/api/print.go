package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/service/printout"
	"github.com/jwalitptl/clinic-desk/pkg/auth"
)

type printOptions struct {
	patientID string
	visitID   string
	format    string
	out       string
	token     string
}

func newPrintCmd(configPath *string) *cobra.Command {
	var opts printOptions

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Render a visit's prescription to stdout or a file",
		Example: `  clinic-desk print --patient 12 --visit 340
  clinic-desk print --patient 12 --format xlsx --out rx.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.token == "" {
				opts.token = os.Getenv("CLINICDESK_TOKEN")
			}
			return runPrint(cmd.Context(), *configPath, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.patientID, "patient", "", "patient id")
	cmd.Flags().StringVar(&opts.visitID, "visit", "", "visit id (default: the patient's most recent visit)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", printout.FormatText, "output format: text or xlsx")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&opts.token, "token", "", "bearer token for the clinic backend (default: $CLINICDESK_TOKEN)")
	_ = cmd.MarkFlagRequired("patient")
	return cmd
}

func runPrint(ctx context.Context, configPath string, opts printOptions, stdout io.Writer) (err error) {
	if opts.format == printout.FormatXLSX && opts.out == "" {
		return errors.New("--out is required for xlsx output")
	}

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	if opts.token != "" {
		ctx = auth.WithCaller(ctx, auth.Caller{Token: opts.token})
	}

	svc := a.printer()
	patientID := model.ID(opts.patientID)
	visitID := model.ID(opts.visitID)
	if visitID.IsZero() {
		// No desk session here, so this is always the most recent visit.
		if visitID, err = svc.LatestID(ctx, "cli", patientID); err != nil {
			return err
		}
	}

	doc, err := svc.Document(ctx, patientID, visitID)
	if err != nil {
		return err
	}

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.out, err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return svc.Write(w, *doc, opts.format)
}
