package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/logger"
)

var listingCmd = &cobra.Command{
	Use:   "listing",
	Short: "Manage listings",
}

var listingCreateCmd = newListingCreateCmd()

func newListingCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new listing as the seeker",
		Run: func(cmd *cobra.Command, _ []string) {
			createListing(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("title", "", "listing title")
	flags.String("location", "", "neighbourhood or address")
	flags.Float64("price", 0, "monthly rent")
	flags.String("room-type", string(housing.RoomPrivate), "private or shared")
	flags.String("start", "", "available from (YYYY-MM-DD)")
	flags.String("end", "", "available until (YYYY-MM-DD)")
	flags.StringSlice("amenity", nil, fmt.Sprintf("amenity, repeatable (one of %s)", strings.Join(housing.Amenities, ", ")))
	flags.String("description", "", "free form description")
	flags.StringSlice("photo", nil, "photo url, repeatable")

	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func init() {
	rootCmd.AddCommand(listingCmd)
	listingCmd.AddCommand(listingCreateCmd)
}

func listingFromFlags(cmd *cobra.Command, ownerID string) (*housing.Listing, error) {
	flags := cmd.Flags()

	title, _ := flags.GetString("title")
	location, _ := flags.GetString("location")
	price, _ := flags.GetFloat64("price")
	roomType, _ := flags.GetString("room-type")
	start, _ := flags.GetString("start")
	end, _ := flags.GetString("end")
	amenities, _ := flags.GetStringSlice("amenity")
	description, _ := flags.GetString("description")
	photos, _ := flags.GetStringSlice("photo")

	rt := housing.RoomType(strings.ToLower(strings.TrimSpace(roomType)))
	if rt != housing.RoomPrivate && rt != housing.RoomShared {
		return nil, fmt.Errorf("unknown room type %q", roomType)
	}

	if price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}

	for _, a := range amenities {
		if !slices.Contains(housing.Amenities, a) {
			return nil, fmt.Errorf("unknown amenity %q", a)
		}
	}

	return &housing.Listing{
		UserID:      ownerID,
		Title:       strings.TrimSpace(title),
		Location:    strings.TrimSpace(location),
		Price:       price,
		StartDate:   start,
		EndDate:     end,
		RoomType:    rt,
		Amenities:   amenities,
		Description: description,
		PhotoURLs:   photos,
	}, nil
}

func createListing(cmd *cobra.Command) {
	ctx := context.Background()

	s := newSession(ctx)
	defer s.Close()

	client, err := s.remote()
	if err != nil {
		s.logger.Fatal("creating listing", zap.Error(err))
	}

	listing, err := listingFromFlags(cmd, s.userID)
	if err != nil {
		s.logger.Fatal("creating listing", zap.Error(err))
	}

	created, err := client.CreateListings(ctx, listing)
	if err != nil {
		s.logger.Fatal("creating listing", zap.Error(err))
	}

	for _, l := range created.Items {
		logger.ForMatch(s.logger, s.userID, l.ID).Info("listing created",
			zap.String("title", l.Title),
			zap.Float64("price", l.Price),
		)
	}
}
