// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// Flags is a bitmask of active restrictions. Bit values are persisted and
// must never be renumbered.
type Flags uint32

// Restriction flag bits.
const (
	FlagHardcore       Flags = 1 << 0
	FlagSoloOnly       Flags = 1 << 1
	FlagNoTrade        Flags = 1 << 2
	FlagNoMail         Flags = 1 << 3
	FlagNoAuction      Flags = 1 << 4
	FlagNoSummons      Flags = 1 << 5
	FlagPermadeath     Flags = 1 << 6
	FlagLowQualityOnly Flags = 1 << 7
	FlagSelfCrafted    Flags = 1 << 8
	FlagPoverty        Flags = 1 << 9
	FlagNoGuildBank    Flags = 1 << 10
	FlagNoMounts       Flags = 1 << 11
	FlagNoBuffs        Flags = 1 << 12
	FlagNoTalents      Flags = 1 << 13
	FlagNoQuestXP      Flags = 1 << 14
	FlagOnlyQuestXP    Flags = 1 << 15
	FlagHalfXP         Flags = 1 << 16
	FlagQuarterXP      Flags = 1 << 17
	FlagNoBots         Flags = 1 << 18
)

// AllFlags is the union of every known restriction bit.
const AllFlags Flags = 1<<19 - 1

// Has reports whether every bit in f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f2 != 0 && f&f2 == f2
}

// Restriction identifies a single gameplay restriction.
type Restriction string

// Known restrictions.
const (
	RestrictionHardcoreGroup  Restriction = "HC_MANUAL_GROUP_ONLY_WITH_HC_TIER"
	RestrictionSoloOnly       Restriction = "SOLO_ONLY"
	RestrictionNoTrade        Restriction = "NO_TRADE"
	RestrictionNoMail         Restriction = "NO_MAIL"
	RestrictionNoAuction      Restriction = "NO_AUCTION"
	RestrictionNoSummons      Restriction = "NO_SUMMONS"
	RestrictionPermadeath     Restriction = "PERMADEATH"
	RestrictionLowQualityOnly Restriction = "LOW_QUALITY_ONLY"
	RestrictionSelfCrafted    Restriction = "SELF_CRAFTED_ONLY"
	RestrictionPoverty        Restriction = "POVERTY"
	RestrictionNoGuildBank    Restriction = "NO_GUILD_BANK"
	RestrictionNoMounts       Restriction = "NO_MOUNTS"
	RestrictionNoBuffs        Restriction = "NO_BUFFS"
	RestrictionNoTalents      Restriction = "NO_TALENTS"
	RestrictionNoQuestXP      Restriction = "NO_QUEST_XP"
	RestrictionOnlyQuestXP    Restriction = "ONLY_QUEST_XP"
	RestrictionHalfXP         Restriction = "HALF_XP"
	RestrictionQuarterXP      Restriction = "QUARTER_XP"
	RestrictionNoBots         Restriction = "NO_BOTS"
)

// RestrictionDef binds a restriction id to its flag bit and display name.
type RestrictionDef struct {
	ID   Restriction
	Flag Flags
	Name string
}

// restrictionTable is ordered by bit value; DescribeFlags relies on it.
var restrictionTable = []RestrictionDef{
	{RestrictionHardcoreGroup, FlagHardcore, "Hardcore"},
	{RestrictionSoloOnly, FlagSoloOnly, "SoloOnly"},
	{RestrictionNoTrade, FlagNoTrade, "NoTrade"},
	{RestrictionNoMail, FlagNoMail, "NoMail"},
	{RestrictionNoAuction, FlagNoAuction, "NoAuction"},
	{RestrictionNoSummons, FlagNoSummons, "NoSummons"},
	{RestrictionPermadeath, FlagPermadeath, "Permadeath"},
	{RestrictionLowQualityOnly, FlagLowQualityOnly, "LowQualityOnly"},
	{RestrictionSelfCrafted, FlagSelfCrafted, "SelfCrafted"},
	{RestrictionPoverty, FlagPoverty, "Poverty"},
	{RestrictionNoGuildBank, FlagNoGuildBank, "NoGuildBank"},
	{RestrictionNoMounts, FlagNoMounts, "NoMounts"},
	{RestrictionNoBuffs, FlagNoBuffs, "NoBuffs"},
	{RestrictionNoTalents, FlagNoTalents, "NoTalents"},
	{RestrictionNoQuestXP, FlagNoQuestXP, "NoQuestXP"},
	{RestrictionOnlyQuestXP, FlagOnlyQuestXP, "OnlyQuestXP"},
	{RestrictionHalfXP, FlagHalfXP, "HalfXP"},
	{RestrictionQuarterXP, FlagQuarterXP, "QuarterXP"},
	{RestrictionNoBots, FlagNoBots, "NoBots"},
}

var restrictionsByID = func() map[Restriction]RestrictionDef {
	m := make(map[Restriction]RestrictionDef, len(restrictionTable))
	for _, def := range restrictionTable {
		m[def.ID] = def
	}
	return m
}()

// Restrictions returns a copy of the restriction table in bit order.
func Restrictions() []RestrictionDef {
	out := make([]RestrictionDef, len(restrictionTable))
	copy(out, restrictionTable)
	return out
}

// FlagFor returns the flag bit for a restriction id.
// Unknown ids return (0, false).
func FlagFor(id Restriction) (Flags, bool) {
	def, ok := restrictionsByID[id]
	if !ok {
		return 0, false
	}
	return def.Flag, true
}

// DescribeFlags renders flags as a comma-separated list of display names,
// or "none" when no known bit is set.
func DescribeFlags(f Flags) string {
	var parts []string
	for _, def := range restrictionTable {
		if f&def.Flag != 0 {
			parts = append(parts, def.Name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// ParseFlags accepts either a numeric mask ("65", "0x41") or a comma-separated
// list of restriction ids or display names ("NO_TRADE,Permadeath").
func ParseFlags(s string) (Flags, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, oops.Code("INVALID_FLAGS").Errorf("flags must not be empty")
	}
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		if Flags(n)&^AllFlags != 0 {
			return 0, oops.Code("INVALID_FLAGS").With("flags", s).Errorf("mask %s sets unknown bits", s)
		}
		return Flags(n), nil
	}

	var out Flags
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		flag, ok := lookupFlagToken(tok)
		if !ok {
			return 0, oops.Code("INVALID_FLAGS").With("token", tok).Errorf("unknown restriction %q", tok)
		}
		out |= flag
	}
	return out, nil
}

func lookupFlagToken(tok string) (Flags, bool) {
	if flag, ok := FlagFor(Restriction(strings.ToUpper(tok))); ok {
		return flag, true
	}
	for _, def := range restrictionTable {
		if strings.EqualFold(def.Name, tok) {
			return def.Flag, true
		}
	}
	return 0, false
}
