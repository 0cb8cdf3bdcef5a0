package chain

import "triarb/internal/symbol"

// Compile enumerates every closed three-leg cycle whose entry asset is in
// bases. The emitted set is frozen; callers own the returned slice and must
// not mutate Chain values (their IDs are stable for the process lifetime).
func Compile(reg *symbol.Registry, bases []symbol.AssetID) ([]Chain, error) {
	var out []Chain
	seen := make(map[seenKey]struct{})

	for _, b1 := range bases {
		for _, s1 := range reg.SymbolsOf(b1) {
			for _, side1 := range sides {
				l1 := Leg{Symbol: s1, Side: side1}
				if l1.InAsset(reg) != b1 {
					continue
				}
				x := l1.OutAsset(reg)

				for _, s2 := range reg.SymbolsOf(x) {
					if s2 == s1 {
						continue // rule (vi): L2 must not reverse L1
					}
					for _, side2 := range sides {
						l2 := Leg{Symbol: s2, Side: side2}
						if l2.InAsset(reg) != x {
							continue
						}
						y := l2.OutAsset(reg)
						if y == x {
							continue // no-op leg
						}

						for _, s3 := range reg.SymbolsOf(y) {
							if s3 == s1 || s3 == s2 {
								continue // rule (iv): pairwise distinct symbols
							}
							for _, side3 := range sides {
								l3 := Leg{Symbol: s3, Side: side3}
								if l3.InAsset(reg) != y || l3.OutAsset(reg) != b1 {
									continue
								}

								key := seenKey{base: b1, legs: [3]Leg{l1, l2, l3}}
								if _, dup := seen[key]; dup {
									continue
								}
								seen[key] = struct{}{}

								out = append(out, Chain{
									ID:        ID(len(out)),
									Legs:      [3]Leg{l1, l2, l3},
									EntryBase: b1,
								})
							}
						}
					}
				}
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoChains
	}
	return out, nil
}

var sides = [2]Side{SideASC, SideDESC}

type seenKey struct {
	base symbol.AssetID
	legs [3]Leg
}
