package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/cloudkhata/cloudkhata/internal/resource/domain"
	"github.com/cloudkhata/cloudkhata/pkg/repository"
	"gorm.io/gorm"
)

type inventory struct {
	vms      repository.Repository[domain.VirtualMachine]
	volumes  repository.Repository[domain.Volume]
	buckets  repository.Repository[domain.ObjectStorageBucket]
	clusters repository.Repository[domain.KubernetesCluster]
	dbs      repository.Repository[domain.ManagedDatabase]
}

func NewInventory(db *gorm.DB) domain.Inventory {
	return &inventory{
		vms:      repository.ProvideStore[domain.VirtualMachine](db),
		volumes:  repository.ProvideStore[domain.Volume](db),
		buckets:  repository.ProvideStore[domain.ObjectStorageBucket](db),
		clusters: repository.ProvideStore[domain.KubernetesCluster](db),
		dbs:      repository.ProvideStore[domain.ManagedDatabase](db),
	}
}

func (r *inventory) ListVirtualMachines(ctx context.Context, accountID snowflake.ID) ([]domain.VirtualMachine, error) {
	items, err := r.vms.Find(ctx, &domain.VirtualMachine{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (r *inventory) ListVolumes(ctx context.Context, accountID snowflake.ID) ([]domain.Volume, error) {
	items, err := r.volumes.Find(ctx, &domain.Volume{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (r *inventory) ListObjectStorageBuckets(ctx context.Context, accountID snowflake.ID) ([]domain.ObjectStorageBucket, error) {
	items, err := r.buckets.Find(ctx, &domain.ObjectStorageBucket{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (r *inventory) ListKubernetesClusters(ctx context.Context, accountID snowflake.ID) ([]domain.KubernetesCluster, error) {
	items, err := r.clusters.Find(ctx, &domain.KubernetesCluster{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (r *inventory) ListDatabases(ctx context.Context, accountID snowflake.ID) ([]domain.ManagedDatabase, error) {
	items, err := r.dbs.Find(ctx, &domain.ManagedDatabase{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func deref[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}
