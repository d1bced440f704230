package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"farmcare-server-go/client"
	"farmcare-server-go/models"
)

func newReportsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reports",
		Usage: "Request reports from the API",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "report type: daily, weekly, monthly or yearly",
						Value: string(models.ReportDaily),
					},
				},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, env *appEnv) error {
					reportType, err := models.ParseReportType(cmd.String("type"))
					if err != nil {
						return err
					}

					report, err := client.NewReportService(env.api(), env.log).GenerateReport(ctx, reportType)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(env.out, report)
					return err
				}),
			},
		},
	}
}
