// Package inventory defines the flat virtualization inventory records that
// feed the topology graph builder.
//
// Records arrive from heterogeneous provider feeds and are best-effort: any
// field except the display name may be missing or empty. Consumers must not
// assume completeness; the graph builder substitutes fallback literals for
// absent grouping fields.
package inventory

// VM is a single virtual machine record from an inventory snapshot.
//
// Usage percentages are pointers because feeds frequently omit them; a nil
// value means "unknown", which downstream rendering treats as "skip
// metric-dependent effects".
type VM struct {
	ID           string   `json:"id,omitempty" bson:"id,omitempty"`
	Name         string   `json:"name" bson:"name"`
	Provider     string   `json:"provider" bson:"provider"`
	Cluster      string   `json:"cluster,omitempty" bson:"cluster,omitempty"`
	Host         string   `json:"host,omitempty" bson:"host,omitempty"`
	Environment  string   `json:"environment,omitempty" bson:"environment,omitempty"`
	PowerState   string   `json:"power_state,omitempty" bson:"power_state,omitempty"`
	CPUUsagePct  *float64 `json:"cpu_usage_pct,omitempty" bson:"cpu_usage_pct,omitempty"`
	RAMUsagePct  *float64 `json:"ram_usage_pct,omitempty" bson:"ram_usage_pct,omitempty"`
	MemorySizeMB *float64 `json:"memory_size_MiB,omitempty" bson:"memory_size_MiB,omitempty"`
}

// Host is a hypervisor host record from an inventory snapshot.
//
// TotalVMs is a pointer so an explicit zero can be distinguished from an
// absent count: a host that reports its own VM count always wins over the
// count derived from VM records, because powered-off guests may be invisible
// to the VM scan.
type Host struct {
	ID              string   `json:"id,omitempty" bson:"id,omitempty"`
	Name            string   `json:"name" bson:"name"`
	Provider        string   `json:"provider" bson:"provider"`
	Cluster         string   `json:"cluster,omitempty" bson:"cluster,omitempty"`
	Environment     string   `json:"environment,omitempty" bson:"environment,omitempty"`
	CPUUsagePct     *float64 `json:"cpu_usage_pct,omitempty" bson:"cpu_usage_pct,omitempty"`
	MemoryUsagePct  *float64 `json:"memory_usage_pct,omitempty" bson:"memory_usage_pct,omitempty"`
	Health          string   `json:"health,omitempty" bson:"health,omitempty"`
	ConnectionState string   `json:"connection_state,omitempty" bson:"connection_state,omitempty"`
	TotalVMs        *int     `json:"total_vms,omitempty" bson:"total_vms,omitempty"`
}

// KPI is the per-environment counter seed carried by some snapshots.
type KPI struct {
	Total     int            `json:"total" bson:"total"`
	On        int            `json:"on" bson:"on"`
	Off       int            `json:"off" bson:"off"`
	Providers map[string]int `json:"providers,omitempty" bson:"providers,omitempty"`
}

// KPISeed maps environment names to their KPI counters. Environments present
// only in the seed still become graph nodes, even when no VM references them.
type KPISeed map[string]KPI

// Snapshot bundles one fetch of the inventory: every VM and host visible to
// the collector plus the optional environment KPI seed.
type Snapshot struct {
	VMs   []VM    `json:"vms" bson:"vms"`
	Hosts []Host  `json:"hosts" bson:"hosts"`
	KPIs  KPISeed `json:"kpis,omitempty" bson:"kpis,omitempty"`
}
