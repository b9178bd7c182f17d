package filterlist

import (
	"allocation-agent/ipfshash"

	"github.com/pkg/errors"
)

// Lists holds the four operator-supplied filter lists. The lists are ordered
// and may overlap; overlap handling is the consumer's concern, not an input
// error.
type Lists struct {
	Whitelist  []ipfshash.IpfsHash
	Blacklist  []ipfshash.IpfsHash
	Pinnedlist []ipfshash.IpfsHash
	Frozenlist []ipfshash.IpfsHash
}

// Validate checks every entry of every list. Any invalid hash fails the
// whole batch before anything touches the network.
func (l Lists) Validate() error {
	for _, batch := range []struct {
		name   string
		hashes []ipfshash.IpfsHash
	}{
		{"whitelist", l.Whitelist},
		{"blacklist", l.Blacklist},
		{"pinnedlist", l.Pinnedlist},
		{"frozenlist", l.Frozenlist},
	} {
		if err := ipfshash.ValidateAll(batch.hashes); err != nil {
			return errors.Wrap(err, batch.name)
		}
	}
	return nil
}

// union returns the order-preserving deduplicated union of a and b: first-seen
// order across the concatenation a ++ b.
func union(a, b []ipfshash.IpfsHash) []ipfshash.IpfsHash {
	out := make([]ipfshash.IpfsHash, 0, len(a)+len(b))
	seen := make(map[ipfshash.IpfsHash]struct{}, len(a)+len(b))
	for _, h := range a {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	for _, h := range b {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// InclusionSet is the query predicate selecting candidate deployments:
// whitelist ∪ pinnedlist, first-seen order.
func (l Lists) InclusionSet() []ipfshash.IpfsHash {
	return union(l.Whitelist, l.Pinnedlist)
}

// ExclusionSet is the query predicate rejecting deployments:
// blacklist ∪ frozenlist, first-seen order.
func (l Lists) ExclusionSet() []ipfshash.IpfsHash {
	return union(l.Blacklist, l.Frozenlist)
}

// FrozenSet returns the frozenlist as a membership set.
func (l Lists) FrozenSet() map[ipfshash.IpfsHash]struct{} {
	set := make(map[ipfshash.IpfsHash]struct{}, len(l.Frozenlist))
	for _, h := range l.Frozenlist {
		set[h] = struct{}{}
	}
	return set
}
