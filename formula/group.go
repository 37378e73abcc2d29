package formula

// Group is the static grouping half of §3's Partition triple: the
// soft- and hard-clause indices that fall into a given bucketed
// partition id. The mutable per-partition engine state (local lower
// bound, totalizer instance, activated list, merge history) is owned
// by the partition package, not here — the Formula Model only knows
// the grouping, not how the search exploits it.
type Group struct {
	ID       int
	SoftIdx  []int
	HardIdx  []int
}

// Groups partitions the formula's soft and hard clauses by their
// bucketed partition id (§3 invariant: "partitions are disjoint on
// soft clauses"). Groups are returned in ascending id order, including
// empty groups for declared-but-unused user partitions so that ids
// stay contiguous and predictable.
func (f *Formula) Groups() []*Group {
	byID := make(map[int]*Group, f.NPartitions())
	get := func(id int) *Group {
		g, ok := byID[id]
		if !ok {
			g = &Group{ID: id}
			byID[id] = g
		}
		return g
	}
	for id := 0; id < f.NPartitions(); id++ {
		get(id)
	}
	for i, s := range f.Soft {
		id := f.EffectivePartition(s.PartitionID, s.HasPart)
		g := get(id)
		g.SoftIdx = append(g.SoftIdx, i)
	}
	for i, h := range f.Hard {
		id := f.EffectivePartition(h.PartitionID, h.HasPart)
		g := get(id)
		g.HardIdx = append(g.HardIdx, i)
	}
	out := make([]*Group, 0, len(byID))
	for id := 0; id < f.NPartitions(); id++ {
		out = append(out, byID[id])
	}
	return out
}
