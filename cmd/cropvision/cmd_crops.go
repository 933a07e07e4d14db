package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cultivai/cropvision/store"
)

var (
	listQuery    string
	listCategory string
	listUser     string

	detailsIcon string
	detailsText string
)

var cropsCmd = &cobra.Command{
	Use:   "crops",
	Short: "Browse the crop catalogue and manage a user's crops",
}

var cropsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogue crops, or the crops a user follows",
	Args:  cobra.NoArgs,
	RunE:  runCropsList,
}

var cropsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the catalogue categories",
	Args:  cobra.NoArgs,
	RunE:  runCropsCategories,
}

var cropsAddCmd = &cobra.Command{
	Use:   "add USER_ID NAME",
	Short: "Add a catalogue crop to a user by its Spanish name",
	Args:  cobra.ExactArgs(2),
	RunE:  runCropsAdd,
}

var cropsSetCmd = &cobra.Command{
	Use:   "set USER_ID [NAME...]",
	Short: "Replace the crops a user follows; notes and photos of dropped crops are deleted",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCropsSet,
}

var cropsDetailsCmd = &cobra.Command{
	Use:   "details NAME",
	Short: "Show a crop, updating its icon or description when flags are given",
	Args:  cobra.ExactArgs(1),
	RunE:  runCropsDetails,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create NAME EMAIL",
	Short: "Register a user and print its id",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsersCreate,
}

var usersShowCmd = &cobra.Command{
	Use:   "show USER_ID",
	Short: "Show a user and the crops they follow",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersShow,
}

func init() {
	cropsListCmd.Flags().StringVarP(&listQuery, "query", "q", "", "filter by name substring")
	cropsListCmd.Flags().StringVar(&listCategory, "category", store.AllCategories, "filter by category")
	cropsListCmd.Flags().StringVar(&listUser, "user", "", "list the crops this user follows instead")
	cropsDetailsCmd.Flags().StringVar(&detailsIcon, "icon", "", "set the crop icon")
	cropsDetailsCmd.Flags().StringVar(&detailsText, "text", "", "set the crop description")
	cropsCmd.AddCommand(cropsListCmd, cropsCategoriesCmd, cropsAddCmd, cropsSetCmd, cropsDetailsCmd)
	usersCmd.AddCommand(usersCreateCmd, usersShowCmd)
}

// withStore runs fn against the configured database.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store) error) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()
	ctx := cmd.Context()
	st, err := svc.Store(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, st)
}

func findCrop(ctx context.Context, st *store.Store, name string) (*store.Crop, error) {
	crop, err := st.FindCropByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find crop %q: %w", name, err)
	}
	return crop, nil
}

func runCropsList(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		var (
			crops []store.Crop
			err   error
		)
		if listUser != "" {
			crops, err = st.UserCrops(ctx, listUser)
		} else {
			crops, err = st.Catalog(ctx, store.CatalogFilter{Query: listQuery, Category: listCategory})
		}
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNOMBRE\tCATEGORIA")
		for _, c := range crops {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Category)
		}
		return tw.Flush()
	})
}

func runCropsCategories(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		categories, err := st.Categories(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, store.AllCategories)
		for _, c := range categories {
			fmt.Fprintln(out, c)
		}
		return nil
	})
}

func runCropsAdd(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		crop, err := findCrop(ctx, st, args[1])
		if err != nil {
			return err
		}
		if err := st.AddUserCrop(ctx, args[0], crop.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s added\n", crop.Name)
		return nil
	})
}

func runCropsSet(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		ids := make([]string, 0, len(args)-1)
		names := make([]string, 0, len(args)-1)
		for _, name := range args[1:] {
			crop, err := findCrop(ctx, st, name)
			if err != nil {
				return err
			}
			ids = append(ids, crop.ID)
			names = append(names, crop.Name)
		}
		if err := st.SetUserCrops(ctx, args[0], ids); err != nil {
			return err
		}
		logger.Info("user crops replaced", zap.String("user", args[0]), zap.Int("crops", len(ids)))
		fmt.Fprintf(cmd.OutOrStdout(), "%d crops: %s\n", len(names), strings.Join(names, ", "))
		return nil
	})
}

func runCropsDetails(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		crop, err := findCrop(ctx, st, args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("icon") || flags.Changed("text") {
			icon, text := crop.Icon, crop.Details
			if flags.Changed("icon") {
				icon = detailsIcon
			}
			if flags.Changed("text") {
				text = detailsText
			}
			if err := st.UpdateCropDetails(ctx, crop.ID, icon, text); err != nil {
				return err
			}
			if crop, err = st.GetCrop(ctx, crop.ID); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", crop.Name, crop.Category)
		if crop.Icon != "" {
			fmt.Fprintf(out, "Icono: %s\n", crop.Icon)
		}
		if crop.Details != "" {
			fmt.Fprintf(out, "\n%s\n", crop.Details)
		}
		return nil
	})
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		u, err := st.CreateUser(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.ID)
		return nil
	})
}

func runUsersShow(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		u, err := st.GetUser(ctx, args[0])
		if err != nil {
			return err
		}
		names := make([]string, 0, len(u.CropIDs))
		for _, id := range u.CropIDs {
			crop, err := st.GetCrop(ctx, id)
			if err != nil {
				return err
			}
			names = append(names, crop.Name)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
		fmt.Fprintf(out, "Registrado: %s\n", u.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(out, "Sembríos: %s\n", strings.Join(names, ", "))
		return nil
	})
}
