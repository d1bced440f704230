package commands

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"farmcare-server-go/client"
	"farmcare-server-go/models"
	"farmcare-server-go/web"
)

func farmerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "farmer name"},
		&cli.StringFlag{Name: "contact", Usage: "phone number or other contact"},
		&cli.StringSliceFlag{Name: "crop", Usage: "crop grown (repeatable)"},
	}
}

func farmerFromFlags(cmd *cli.Command) models.Farmer {
	return models.Farmer{
		Name:    cmd.String("name"),
		Contact: cmd.String("contact"),
		Crop:    models.Crops(cmd.StringSlice("crop")),
	}
}

func idArg(cmd *cli.Command) (string, error) {
	id := cmd.Args().First()
	if id == "" {
		return "", errors.New("a farmer id is required")
	}
	return id, nil
}

// withFarmers runs fn with a FarmerService for the configured API.
func withFarmers(fn func(ctx context.Context, cmd *cli.Command, env *appEnv, farmers *client.FarmerService) error) cli.ActionFunc {
	return withEnv(func(ctx context.Context, cmd *cli.Command, env *appEnv) error {
		return fn(ctx, cmd, env, client.NewFarmerService(env.api(), env.log))
	})
}

func newFarmersCommand() *cli.Command {
	return &cli.Command{
		Name:  "farmers",
		Usage: "Manage farmer records through the API",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all farmers",
				Action: withFarmers(func(ctx context.Context, cmd *cli.Command, env *appEnv, farmers *client.FarmerService) error {
					list, err := farmers.FetchFarmers(ctx)
					if err != nil {
						return err
					}
					return printTable(env.out, web.FarmerTable(list))
				}),
			},
			{
				Name:      "get",
				Usage:     "Show one farmer",
				ArgsUsage: "<id>",
				Action: withFarmers(func(ctx context.Context, cmd *cli.Command, env *appEnv, farmers *client.FarmerService) error {
					id, err := idArg(cmd)
					if err != nil {
						return err
					}
					farmer, err := farmers.GetFarmerByID(ctx, id)
					if err != nil {
						return err
					}
					return printTable(env.out, web.FarmerTable([]models.Farmer{*farmer}))
				}),
			},
			{
				Name:  "create",
				Usage: "Create a farmer",
				Flags: farmerFlags(),
				Action: withFarmers(func(ctx context.Context, cmd *cli.Command, env *appEnv, farmers *client.FarmerService) error {
					created, err := farmers.CreateFarmer(ctx, farmerFromFlags(cmd))
					if err != nil {
						return err
					}
					return printTable(env.out, web.FarmerTable([]models.Farmer{*created}))
				}),
			},
			{
				Name:      "update",
				Usage:     "Update the given fields of a farmer",
				ArgsUsage: "<id>",
				Flags:     farmerFlags(),
				Action: withFarmers(func(ctx context.Context, cmd *cli.Command, env *appEnv, farmers *client.FarmerService) error {
					id, err := idArg(cmd)
					if err != nil {
						return err
					}
					updated, err := farmers.UpdateFarmer(ctx, id, farmerFromFlags(cmd))
					if err != nil {
						return err
					}
					return printTable(env.out, web.FarmerTable([]models.Farmer{*updated}))
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a farmer",
				ArgsUsage: "<id>",
				Action: withFarmers(func(ctx context.Context, cmd *cli.Command, env *appEnv, farmers *client.FarmerService) error {
					id, err := idArg(cmd)
					if err != nil {
						return err
					}
					msg, err := farmers.DeleteFarmer(ctx, id)
					if err != nil {
						return err
					}
					return printMessage(env.out, msg.Message)
				}),
			},
		},
	}
}
