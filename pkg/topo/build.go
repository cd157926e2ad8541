package topo

import (
	"sort"
	"strings"

	"github.com/topolens/topolens/pkg/inventory"
)

// Build turns flat inventory records into the five-level topology graph.
//
// The build walks every VM record through idempotent ensure-constructors
// (env → provider → cluster → host), attaches a vm node per record, then
// runs a second pass over host records to place hosts and overwrite their
// live metrics. Aggregated counters on cluster/provider/env ancestors are
// incremented while each vm attaches.
//
// Identity is deterministic: node ids derive from kind, parent chain, and
// slugified names — never from array index or randomness — so rebuilding
// from identical inputs yields identical ids and a re-render keeps focus
// and selection stable.
//
// Build never returns an error. Missing grouping fields fall back to the
// literal "unknown".
func Build(vms []inventory.VM, hosts []inventory.Host, seed inventory.KPISeed) Graph {
	b := newBuilder()

	b.seedEnvs(vms, hosts, seed)

	for i := range vms {
		b.addVM(&vms[i])
	}
	for i := range hosts {
		b.addHost(&hosts[i])
	}

	b.applySeedFallback(seed)

	return Graph{
		Nodes: b.nodes,
		Links: b.links,
		Stats: computeStats(b.nodes),
	}
}

// builder accumulates nodes and links during one build. It is not reused.
type builder struct {
	nodes []Node
	index map[string]int // node id -> position in nodes
	links []Link

	// clusterEnv maps "provider::clusterName" to the environment observed
	// while scanning VM records, so the host pass can place hosts whose
	// records lack an explicit environment. When two VMs disagree, the
	// lexicographically smaller environment wins, keeping the build
	// independent of input order.
	clusterEnv map[string]string
}

func newBuilder() *builder {
	return &builder{
		index:      make(map[string]int),
		clusterEnv: make(map[string]string),
	}
}

// seedEnvs creates env nodes for the union of KPI-seed keys and every
// environment observed in VM records. If there are no VMs but hosts exist,
// one fallback environment is seeded so hosts have somewhere to live.
func (b *builder) seedEnvs(vms []inventory.VM, hosts []inventory.Host, seed inventory.KPISeed) {
	set := make(map[string]struct{}, len(seed))
	for name := range seed {
		set[normalize(name)] = struct{}{}
	}
	for i := range vms {
		set[normalize(vms[i].Environment)] = struct{}{}
	}
	if len(set) == 0 {
		if len(hosts) == 0 {
			return
		}
		set[FallbackName] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.ensureEnv(name)
	}
}

// addVM walks one VM record down the hierarchy and attaches its vm node.
func (b *builder) addVM(vm *inventory.VM) {
	envName := normalize(vm.Environment)
	provName := normalize(vm.Provider)
	clusterName := normalize(vm.Cluster)
	hostName := normalize(vm.Host)
	name := normalize(vm.Name)

	envID := b.ensureEnv(envName)
	provID := b.ensureProvider(envID, envName, provName)
	clusterID := b.ensureCluster(provID, envName, provName, clusterName)
	hostID := b.ensureHost(clusterID, envName, provName, clusterName, hostName)

	b.indexClusterEnv(provName, clusterName, envName)

	// The vm id derives from provider + record id (or name) + host, never
	// from array index, so it survives rebuilds and reordering.
	ref := vm.ID
	if strings.TrimSpace(ref) == "" {
		ref = name
	}
	vmID := "vm:" + Slug(provName) + ":" + Slug(ref) + ":" + Slug(hostName)
	if _, dup := b.index[vmID]; dup {
		// Duplicate record for the same vm; counting it twice would break
		// the conservation invariant.
		return
	}

	b.append(Node{
		ID:          vmID,
		Type:        KindVM,
		Name:        name,
		HostID:      hostID,
		PowerState:  vm.PowerState,
		CPUUsagePct: vm.CPUUsagePct,
		RAMUsagePct: vm.RAMUsagePct,
		SourceID:    vm.ID,
	})
	b.link(hostID, vmID)

	b.node(hostID).Meta.VMCount++
	b.bump(clusterID, provName, vm.PowerState)
	b.bump(provID, provName, vm.PowerState)
	b.bump(envID, provName, vm.PowerState)
}

// addHost places one host record and overwrites the host node's live
// metrics. Host records run after the VM pass so an explicit reported VM
// count can take precedence over the derived one.
func (b *builder) addHost(h *inventory.Host) {
	provName := normalize(h.Provider)
	clusterName := normalize(h.Cluster)
	hostName := normalize(h.Name)

	envName, ok := b.clusterEnv[clusterEnvKey(provName, clusterName)]
	if !ok {
		envName = normalize(h.Environment)
	}

	envID := b.ensureEnv(envName)
	provID := b.ensureProvider(envID, envName, provName)
	clusterID := b.ensureCluster(provID, envName, provName, clusterName)
	hostID := b.ensureHost(clusterID, envName, provName, clusterName, hostName)

	n := b.node(hostID)
	n.CPUUsagePct = h.CPUUsagePct
	n.RAMUsagePct = h.MemoryUsagePct
	n.Health = h.Health
	n.ConnectionState = h.ConnectionState
	if h.ID != "" {
		n.SourceID = h.ID
	}
	if h.TotalVMs != nil {
		// Host-reported counts win: powered-off guests may be invisible to
		// the VM scan.
		n.Meta.VMCount = *h.TotalVMs
	}
}

// =============================================================================
// Ensure constructors
//
// Each returns the existing node id for an identical (parent, slug) pair or
// creates the node plus its parent link. This is what makes the whole build
// an idempotent fold.
// =============================================================================

func (b *builder) ensureEnv(name string) string {
	id := "env:" + Slug(name)
	if _, ok := b.index[id]; ok {
		return id
	}
	b.append(Node{
		ID:   id,
		Type: KindEnv,
		Name: name,
		Meta: &Meta{Providers: map[string]int{}},
	})
	return id
}

func (b *builder) ensureProvider(envID, envName, name string) string {
	id := "provider:" + Slug(envName) + ":" + Slug(name)
	if _, ok := b.index[id]; ok {
		return id
	}
	b.append(Node{
		ID:    id,
		Type:  KindProvider,
		Name:  name,
		EnvID: envID,
		Meta:  &Meta{Providers: map[string]int{}},
	})
	b.link(envID, id)
	return id
}

func (b *builder) ensureCluster(providerID, envName, provName, name string) string {
	id := "cluster:" + Slug(envName) + ":" + Slug(provName) + ":" + Slug(name)
	if _, ok := b.index[id]; ok {
		return id
	}
	b.append(Node{
		ID:         id,
		Type:       KindCluster,
		Name:       name,
		ProviderID: providerID,
		Meta:       &Meta{Providers: map[string]int{}},
	})
	b.link(providerID, id)
	return id
}

func (b *builder) ensureHost(clusterID, envName, provName, clusterName, name string) string {
	id := "host:" + Slug(envName) + ":" + Slug(provName) + ":" + Slug(clusterName) + ":" + Slug(name)
	if _, ok := b.index[id]; ok {
		return id
	}
	b.append(Node{
		ID:        id,
		Type:      KindHost,
		Name:      name,
		ClusterID: clusterID,
		Meta:      &Meta{},
	})
	b.link(clusterID, id)
	return id
}

// =============================================================================
// Internals
// =============================================================================

func (b *builder) append(n Node) {
	b.index[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)
}

func (b *builder) node(id string) *Node {
	return &b.nodes[b.index[id]]
}

func (b *builder) link(source, target string) {
	b.links = append(b.links, Link{Source: source, Target: target})
}

func clusterEnvKey(provName, clusterName string) string {
	return provName + "::" + clusterName
}

func (b *builder) indexClusterEnv(provName, clusterName, envName string) {
	key := clusterEnvKey(provName, clusterName)
	if prev, ok := b.clusterEnv[key]; !ok || envName < prev {
		b.clusterEnv[key] = envName
	}
}

// bump increments the aggregate counters on one ancestor node.
func (b *builder) bump(id, provName, powerState string) {
	m := b.node(id).Meta
	m.Total++
	switch classifyPower(powerState) {
	case powerOn:
		m.On++
	case powerOff:
		m.Off++
	}
	if m.Providers == nil {
		m.Providers = map[string]int{}
	}
	m.Providers[provName]++
}

type powerClass int

const (
	powerOther powerClass = iota
	powerOn
	powerOff
)

// classifyPower buckets a reported power state. Anything that is not
// (case-insensitively) powered_on or powered_off counts only toward Total.
func classifyPower(state string) powerClass {
	switch {
	case strings.EqualFold(state, "powered_on"):
		return powerOn
	case strings.EqualFold(state, "powered_off"):
		return powerOff
	default:
		return powerOther
	}
}

// applySeedFallback adopts KPI-seed counters for environments the VM scan
// left empty. Seeds never add on top of scanned counters — that would break
// the invariant that env totals equal the sum of their descendants.
func (b *builder) applySeedFallback(seed inventory.KPISeed) {
	if len(seed) == 0 {
		return
	}
	for name, kpi := range seed {
		id := "env:" + Slug(normalize(name))
		idx, ok := b.index[id]
		if !ok {
			continue
		}
		m := b.nodes[idx].Meta
		if m.Total != 0 {
			continue
		}
		m.Total = kpi.Total
		m.On = kpi.On
		m.Off = kpi.Off
		for p, c := range kpi.Providers {
			m.Providers[p] = c
		}
	}
}
