package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/szamlaconv/internal/config"
	"github.com/JonMunkholm/szamlaconv/internal/core"
	"github.com/JonMunkholm/szamlaconv/internal/logging"
	"github.com/urfave/cli/v3"
)

const (
	defaultFieldsFile   = "assets/fields.yaml"
	defaultTemplateFile = "assets/template.csv"
)

// newApp builds the command tree. Converted output and listings go to out;
// logs go to stderr.
func newApp(out io.Writer) *cli.Command {
	var logLevel, logFormat string

	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a booking export into an invoicing import CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "Log format (text, json)",
				Value:       "text",
				Sources:     cli.EnvVars("LOG_FORMAT"),
				Destination: &logFormat,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			slog.SetDefault(logging.New(os.Stderr, logLevel, logFormat))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdRun(out),
			cmdFields(out),
			cmdTemplate(out),
		},
	}
}

func fieldsFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "fields",
		Usage:       "Field definition YAML file",
		Value:       defaultFieldsFile,
		Sources:     cli.EnvVars("FIELDS_FILE"),
		Destination: dest,
	}
}

func templateFlags(path, enc *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "template",
			Usage:       "Import template file",
			Value:       defaultTemplateFile,
			Sources:     cli.EnvVars("TEMPLATE_FILE"),
			Destination: path,
		},
		&cli.StringFlag{
			Name:        "template-encoding",
			Usage:       "Charset of the template file",
			Value:       core.DefaultEncoding,
			Sources:     cli.EnvVars("TEMPLATE_ENCODING"),
			Destination: enc,
		},
	}
}

func cmdRun(out io.Writer) *cli.Command {
	var (
		fieldsPath, templatePath, templateEncoding string
		input, output, outputEncoding              string
		delimiter, sourceEncoding                  string
	)

	flags := []cli.Flag{fieldsFlag(&fieldsPath)}
	flags = append(flags, templateFlags(&templatePath, &templateEncoding)...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Booking export CSV (\"-\" reads stdin)",
			Required:    true,
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Import file to write (\"-\" or empty writes stdout)",
			Destination: &output,
		},
		&cli.StringFlag{
			Name:        "encoding",
			Usage:       "Charset of the import file",
			Value:       core.DefaultEncoding,
			Sources:     cli.EnvVars("OUTPUT_ENCODING"),
			Destination: &outputEncoding,
		},
		&cli.StringFlag{
			Name:        "delimiter",
			Usage:       "Cell separator of the booking export (\\t for tab)",
			Value:       ",",
			Sources:     cli.EnvVars("SOURCE_DELIMITER"),
			Destination: &delimiter,
		},
		&cli.StringFlag{
			Name:        "source-encoding",
			Usage:       "Charset of the booking export (default UTF-8)",
			Sources:     cli.EnvVars("SOURCE_ENCODING"),
			Destination: &sourceEncoding,
		},
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Load, resolve and assemble in one step",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			templateEnc, err := core.LookupEncoding(templateEncoding)
			if err != nil {
				return fmt.Errorf("template encoding: %w", err)
			}
			outputEnc, err := core.LookupEncoding(outputEncoding)
			if err != nil {
				return fmt.Errorf("output encoding: %w", err)
			}

			source := core.SourceOptions{
				Delimiter: (&config.SourceConfig{Delimiter: delimiter}).DelimiterRune(),
			}
			if sourceEncoding != "" {
				if source.Encoding, err = core.LookupEncoding(sourceEncoding); err != nil {
					return fmt.Errorf("source encoding: %w", err)
				}
			}

			service, err := core.NewService(core.ServiceOptions{
				FieldsPath:       fieldsPath,
				TemplatePath:     templatePath,
				TemplateEncoding: templateEnc,
				OutputEncoding:   outputEnc,
				Source:           source,
			})
			if err != nil {
				return err
			}

			if err := loadInput(ctx, service, input); err != nil {
				return err
			}

			if output == "" || output == "-" {
				data, err := service.Export(ctx)
				if err != nil {
					return err
				}
				if _, err := out.Write(data); err != nil {
					return fmt.Errorf("%w: %w", core.ErrWrite, err)
				}
				return nil
			}
			return service.ExportFile(ctx, output)
		},
	}
}

func loadInput(ctx context.Context, service *core.Service, input string) error {
	if input == "-" {
		_, err := service.LoadSource(ctx, "stdin", os.Stdin)
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrRead, err)
	}
	defer f.Close()

	_, err = service.LoadSource(ctx, input, f)
	return err
}

func cmdFields(out io.Writer) *cli.Command {
	var fieldsPath string

	return &cli.Command{
		Name:  "fields",
		Usage: "List the field catalog",
		Flags: []cli.Flag{fieldsFlag(&fieldsPath)},
		Action: func(ctx context.Context, c *cli.Command) error {
			catalog, err := core.ReadCatalogFile(fieldsPath, time.Now())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tEDITABLE\tVALUE")
			for _, f := range catalog.Fields() {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", f.Name(), f.Kind(), f.Editable(), describeField(f))
			}
			return tw.Flush()
		},
	}
}

func describeField(f core.Field) string {
	switch field := f.(type) {
	case *core.MappingField:
		return "<- " + field.Column
	case *core.ConstantField:
		return field.Value
	case *core.TextField:
		if len(field.Options) > 0 {
			return field.Value + " [" + strings.Join(field.Options, "|") + "]"
		}
		return field.Value
	case *core.DateField:
		return field.Value
	}
	return ""
}

func cmdTemplate(out io.Writer) *cli.Command {
	var templatePath, templateEncoding string

	return &cli.Command{
		Name:  "template",
		Usage: "Show the parsed import template",
		Flags: templateFlags(&templatePath, &templateEncoding),
		Action: func(ctx context.Context, c *cli.Command) error {
			enc, err := core.LookupEncoding(templateEncoding)
			if err != nil {
				return err
			}
			tmpl, err := core.ReadTemplateFile(templatePath, enc)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "header lines: %d\n", len(tmpl.Header))
			for _, line := range tmpl.Header {
				fmt.Fprintf(out, "  %s\n", line)
			}
			fmt.Fprintf(out, "column groups: %d\n", len(tmpl.Groups))
			for i, g := range tmpl.Groups {
				fmt.Fprintf(out, "  %d: %s\n", i+1, strings.Join(g, " | "))
			}
			fmt.Fprintf(out, "tokens: %s\n", strings.Join(tmpl.Tokens(), ", "))
			return nil
		},
	}
}
