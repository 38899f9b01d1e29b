package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Inventory lists the billable resources of an account, one call per
// resource category so a failure in one category cannot block another.
type Inventory interface {
	ListVirtualMachines(ctx context.Context, accountID snowflake.ID) ([]VirtualMachine, error)
	ListVolumes(ctx context.Context, accountID snowflake.ID) ([]Volume, error)
	ListObjectStorageBuckets(ctx context.Context, accountID snowflake.ID) ([]ObjectStorageBucket, error)
	ListKubernetesClusters(ctx context.Context, accountID snowflake.ID) ([]KubernetesCluster, error)
	ListDatabases(ctx context.Context, accountID snowflake.ID) ([]ManagedDatabase, error)
}
