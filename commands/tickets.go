package commands

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"farmcare-server-go/client"
	"farmcare-server-go/models"
	"farmcare-server-go/web"
)

func ticketIDArg(cmd *cli.Command) (string, error) {
	id := cmd.Args().First()
	if id == "" {
		return "", errors.New("a ticket id is required")
	}
	return id, nil
}

func newTicketsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tickets",
		Usage: "Manage customer-care tickets through the API",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tickets, optionally those of one farmer or executive",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "farmer", Usage: "only tickets raised by this farmer id"},
					&cli.StringFlag{Name: "cce", Usage: "only tickets assigned to this executive id"},
					&cli.StringFlag{Name: "status", Usage: "with --cce, only tickets in this status"},
				},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, env *appEnv) error {
					tickets := client.NewTicketService(env.api(), env.log)

					var (
						list []models.Ticket
						err  error
					)
					switch {
					case cmd.String("farmer") != "" && cmd.String("cce") != "":
						return errors.New("--farmer and --cce cannot be combined")
					case cmd.String("farmer") != "":
						list, err = tickets.FetchTicketsByFarmer(ctx, cmd.String("farmer"))
					case cmd.String("cce") != "":
						list, err = tickets.FetchTicketsByCCE(ctx, cmd.String("cce"), cmd.String("status"))
					default:
						list, err = tickets.FetchTickets(ctx)
					}
					if err != nil {
						return err
					}
					return printTable(env.out, web.TicketTable(list))
				}),
			},
			{
				Name:      "update",
				Usage:     "Change the status, executive or description of a ticket",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "open, in_progress or closed"},
					&cli.StringFlag{Name: "cce", Usage: "executive id to assign"},
					&cli.StringFlag{Name: "description", Usage: "new description"},
				},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, env *appEnv) error {
					id, err := ticketIDArg(cmd)
					if err != nil {
						return err
					}
					update := models.Ticket{
						CCEID:       models.ID(cmd.String("cce")),
						Status:      cmd.String("status"),
						Description: cmd.String("description"),
					}
					updated, err := client.NewTicketService(env.api(), env.log).UpdateTicket(ctx, id, update)
					if err != nil {
						return err
					}
					return printTable(env.out, web.TicketTable([]models.Ticket{*updated}))
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a ticket",
				ArgsUsage: "<id>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, env *appEnv) error {
					id, err := ticketIDArg(cmd)
					if err != nil {
						return err
					}
					msg, err := client.NewTicketService(env.api(), env.log).DeleteTicket(ctx, id)
					if err != nil {
						return err
					}
					return printMessage(env.out, msg.Message)
				}),
			},
		},
	}
}
