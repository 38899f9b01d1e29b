// Package domain contains persistence models for the billable resource
// inventory.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Resource lifecycle states that qualify for metering. Volumes and
// buckets bill in every state because allocation itself is the charge.
const (
	VMStatusRunning       = "running"
	VMStatusStopped       = "stopped"
	ClusterStatusActive   = "active"
	DatabaseStatusActive  = "active"
	DatabaseStatusStopped = "stopped"
)

// VirtualMachine is a compute instance owned by an account.
type VirtualMachine struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	AccountID snowflake.ID      `gorm:"not null;index"`
	Name      string            `gorm:"type:text;not null"`
	Status    string            `gorm:"type:text;not null"`
	VCPUs     int               `gorm:"column:vcpus;not null"`
	MemoryMB  int64             `gorm:"not null"`
	DiskGB    int64             `gorm:"not null"`
	Region    string            `gorm:"type:text"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (VirtualMachine) TableName() string { return "virtual_machines" }

// Volume is an allocated block storage device. Billed whether or not it
// is attached.
type Volume struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	AccountID  snowflake.ID  `gorm:"not null;index"`
	Name       string        `gorm:"type:text;not null"`
	SizeGB     int64         `gorm:"not null"`
	Status     string        `gorm:"type:text;not null"`
	AttachedTo *snowflake.ID `gorm:""`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Volume) TableName() string { return "volumes" }

// ObjectStorageBucket tracks bucket size in bytes as reported by the
// storage backend.
type ObjectStorageBucket struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text;not null;uniqueIndex"`
	SizeBytes int64        `gorm:"not null;default:0"`
	Status    string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ObjectStorageBucket) TableName() string { return "object_storage_buckets" }

// KubernetesCluster bills per node-hour on its current node count.
type KubernetesCluster struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text;not null"`
	NodeCount int          `gorm:"not null;default:1"`
	Version   string       `gorm:"type:text"`
	Status    string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (KubernetesCluster) TableName() string { return "kubernetes_clusters" }

// ManagedDatabase bills compute hours plus allocated storage GB-hours.
type ManagedDatabase struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text;not null"`
	Engine    string       `gorm:"type:text;not null"`
	StorageGB int64        `gorm:"not null"`
	Status    string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ManagedDatabase) TableName() string { return "managed_databases" }
