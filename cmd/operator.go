package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	catalogRequest "github.com/Alturino/storefront/catalog/request"
	catalogService "github.com/Alturino/storefront/catalog/service"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/repository"
	orderRequest "github.com/Alturino/storefront/order/request"
	orderService "github.com/Alturino/storefront/order/service"
)

func catalogCommand() *cobra.Command {
	var productID string
	image := catalogRequest.AddImage{}
	addImage := &cobra.Command{
		Use:   "add-image",
		Short: "Attach an image to a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(productID)
			if err != nil {
				return fmt.Errorf("failed parsing product id=%s with error=%w", productID, err)
			}
			image.ProductID = id
			return runAddImage(cmd.Context(), image)
		},
	}
	addImage.Flags().StringVar(&productID, "product", "", "product id")
	addImage.Flags().StringVar(&image.Image, "image", "", "image path relative to the media root")
	addImage.Flags().StringVar(&image.AltText, "alt", "", "alternative text")
	addImage.Flags().BoolVar(&image.IsPrimary, "primary", false, "use as the main listing image")
	addImage.Flags().BoolVar(&image.IsSecondary, "secondary", false, "use as the hover listing image")
	addImage.Flags().Int32Var(&image.Position, "position", 0, "display position")
	_ = addImage.MarkFlagRequired("product")
	_ = addImage.MarkFlagRequired("image")

	catalog := &cobra.Command{Use: "catalog", Short: "Manage the product catalog"}
	catalog.AddCommand(addImage)
	return catalog
}

func ordersCommand() *cobra.Command {
	shipment := orderRequest.ShipOrder{}
	ship := &cobra.Command{
		Use:   "ship",
		Short: "Mark a paid order as shipped",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShipOrder(cmd.Context(), shipment)
		},
	}
	ship.Flags().StringVar(&shipment.OrderNumber, "order", "", "order number")
	ship.Flags().StringVar(&shipment.TrackingNumber, "tracking", "", "carrier tracking number")
	ship.Flags().StringVar(&shipment.EstimatedDelivery, "eta", "", "estimated delivery date, YYYY-MM-DD")
	_ = ship.MarkFlagRequired("order")
	_ = ship.MarkFlagRequired("tracking")

	orders := &cobra.Command{Use: "orders", Short: "Manage orders"}
	orders.AddCommand(ship)
	return orders
}

func runAddImage(c context.Context, image catalogRequest.AddImage) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppCatalogService).
		Str(log.KeyTag, "main runAddImage").
		Str(log.KeyProductID, image.ProductID.String()).
		Logger()
	c = logger.WithContext(c)

	cfg := config.InitConfig(c, constants.AppStorefront)
	pool := infra.NewDatabaseClient(c, cfg.Database)
	defer pool.Close()
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer cache.Close()

	svc := catalogService.NewCatalogService(pool, repository.New(pool), cache)
	added, err := svc.AddProductImage(c, image)
	if err != nil {
		return err
	}
	logger.Info().Int64("imageId", added.ID).Msg("added product image")
	return nil
}

func runShipOrder(c context.Context, shipment orderRequest.ShipOrder) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppOrderService).
		Str(log.KeyTag, "main runShipOrder").
		Str(log.KeyOrderNumber, shipment.OrderNumber).
		Logger()
	c = logger.WithContext(c)

	cfg := config.InitConfig(c, constants.AppStorefront)
	pool := infra.NewDatabaseClient(c, cfg.Database)
	defer pool.Close()

	order, err := orderService.NewOrderService(pool, repository.New(pool)).ShipOrder(c, shipment)
	if err != nil {
		return err
	}
	logger.Info().Str("status", order.Status).Msg("shipped order")
	return nil
}
