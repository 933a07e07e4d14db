package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cultivai/cropvision/store"
)

const listTimeLayout = "2006-01-02 15:04"

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Keep notes on the crops a user follows",
}

var notesAddCmd = &cobra.Command{
	Use:   "add USER_ID CROP TEXT...",
	Short: "Add a note to a followed crop and print its id",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runNotesAdd,
}

var notesListCmd = &cobra.Command{
	Use:   "list USER_ID CROP",
	Short: "List the notes of a followed crop, oldest first",
	Args:  cobra.ExactArgs(2),
	RunE:  runNotesList,
}

var notesRmCmd = &cobra.Command{
	Use:   "rm USER_ID CROP NOTE_ID",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(3),
	RunE:  runNotesRm,
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Keep photo references for the crops a user follows",
}

var imagesAddCmd = &cobra.Command{
	Use:   "add USER_ID CROP URL",
	Short: "Record a photo for a followed crop and print its id",
	Args:  cobra.ExactArgs(3),
	RunE:  runImagesAdd,
}

var imagesListCmd = &cobra.Command{
	Use:   "list USER_ID CROP",
	Short: "List the photos of a followed crop, oldest first",
	Args:  cobra.ExactArgs(2),
	RunE:  runImagesList,
}

var imagesRmCmd = &cobra.Command{
	Use:   "rm USER_ID CROP IMAGE_ID",
	Short: "Delete a photo reference",
	Args:  cobra.ExactArgs(3),
	RunE:  runImagesRm,
}

func init() {
	notesCmd.AddCommand(notesAddCmd, notesListCmd, notesRmCmd)
	imagesCmd.AddCommand(imagesAddCmd, imagesListCmd, imagesRmCmd)
}

// withUserCrop resolves the CROP argument by name before calling fn.
func withUserCrop(cmd *cobra.Command, cropName string, fn func(ctx context.Context, st *store.Store, crop *store.Crop) error) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		crop, err := findCrop(ctx, st, cropName)
		if err != nil {
			return err
		}
		return fn(ctx, st, crop)
	})
}

func runNotesAdd(cmd *cobra.Command, args []string) error {
	return withUserCrop(cmd, args[1], func(ctx context.Context, st *store.Store, crop *store.Crop) error {
		n, err := st.AddNote(ctx, args[0], crop.ID, strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n.ID)
		return nil
	})
}

func runNotesList(cmd *cobra.Command, args []string) error {
	return withUserCrop(cmd, args[1], func(ctx context.Context, st *store.Store, crop *store.Crop) error {
		notes, err := st.Notes(ctx, args[0], crop.ID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tFECHA\tNOTA")
		for _, n := range notes {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", n.ID, n.CreatedAt.Local().Format(listTimeLayout), n.Content)
		}
		return tw.Flush()
	})
}

func runNotesRm(cmd *cobra.Command, args []string) error {
	return withUserCrop(cmd, args[1], func(ctx context.Context, st *store.Store, crop *store.Crop) error {
		if err := st.DeleteNote(ctx, args[0], crop.ID, args[2]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "note deleted")
		return nil
	})
}

func runImagesAdd(cmd *cobra.Command, args []string) error {
	return withUserCrop(cmd, args[1], func(ctx context.Context, st *store.Store, crop *store.Crop) error {
		img, err := st.AddImage(ctx, args[0], crop.ID, args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), img.ID)
		return nil
	})
}

func runImagesList(cmd *cobra.Command, args []string) error {
	return withUserCrop(cmd, args[1], func(ctx context.Context, st *store.Store, crop *store.Crop) error {
		images, err := st.Images(ctx, args[0], crop.ID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tFECHA\tURL")
		for _, img := range images {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", img.ID, img.CreatedAt.Local().Format(listTimeLayout), img.URL)
		}
		return tw.Flush()
	})
}

func runImagesRm(cmd *cobra.Command, args []string) error {
	return withUserCrop(cmd, args[1], func(ctx context.Context, st *store.Store, crop *store.Crop) error {
		if err := st.DeleteImage(ctx, args[0], crop.ID, args[2]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "image deleted")
		return nil
	})
}
