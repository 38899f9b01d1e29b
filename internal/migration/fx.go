package migration

import (
	accountdomain "github.com/cloudkhata/cloudkhata/internal/account/domain"
	"github.com/cloudkhata/cloudkhata/internal/config"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	referencedomain "github.com/cloudkhata/cloudkhata/internal/reference/domain"
	resourcedomain "github.com/cloudkhata/cloudkhata/internal/resource/domain"
	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// embedded migrations are postgres SQL; sqlite (local dev)
		// gets the schema from AutoMigrate instead
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&accountdomain.Account{},
				&accountdomain.BillingAddress{},
				&resourcedomain.VirtualMachine{},
				&resourcedomain.Volume{},
				&resourcedomain.ObjectStorageBucket{},
				&resourcedomain.KubernetesCluster{},
				&resourcedomain.ManagedDatabase{},
				&usagedomain.UsageRecord{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceLineItem{},
				&invoicedomain.InvoiceSequence{},
				&taxdomain.TaxCalculation{},
				&referencedomain.HSNCode{},
			)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
