// Package settings implements cascading configuration across the
// round → hunt → guild scope chain.
//
// Each scope declares its settable fields in a registry mapping setting name
// to a typed accessor pair. Writes go through the registry, so the set of
// recognized keys and their types is fixed at compile time rather than being
// a reflection surface, and adding a setting means adding one registry line.
package settings

import (
	"sort"
	"strconv"

	"github.com/pwolcott/huntmaster/internal/models"
)

// field is one registered setting on a scope: a display/read accessor and a
// raw-string write accessor that enforces the declared type.
type field[T any] struct {
	get func(T) string
	set func(T, string) error
}

func textField[T any](ptr func(T) *string) field[T] {
	return field[T]{
		get: func(o T) string { return *ptr(o) },
		set: func(o T, raw string) error {
			*ptr(o) = raw
			return nil
		},
	}
}

func intField[T any](key string, ptr func(T) *int) field[T] {
	return field[T]{
		get: func(o T) string { return strconv.Itoa(*ptr(o)) },
		set: func(o T, raw string) error {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return &TypeConversionError{Key: key, Raw: raw, Want: "integer"}
			}
			*ptr(o) = n
			return nil
		},
	}
}

func boolField[T any](key string, ptr func(T) *bool) field[T] {
	return field[T]{
		get: func(o T) string { return strconv.FormatBool(*ptr(o)) },
		set: func(o T, raw string) error {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return &TypeConversionError{Key: key, Raw: raw, Want: "boolean"}
			}
			*ptr(o) = b
			return nil
		},
	}
}

var guildFields = map[string]field[*models.Guild]{
	"name":                   textField(func(g *models.Guild) *string { return &g.Name }),
	"discussion_channel":     textField(func(g *models.Guild) *string { return &g.DiscussionChannel }),
	"bot_channel":            textField(func(g *models.Guild) *string { return &g.BotChannel }),
	"bot_emoji":              textField(func(g *models.Guild) *string { return &g.BotEmoji }),
	"use_voice_channels":     boolField("use_voice_channels", func(g *models.Guild) *bool { return &g.UseVoiceChannels }),
	"drive_parent_id":        textField(func(g *models.Guild) *string { return &g.DriveParentID }),
	"drive_resources_id":     textField(func(g *models.Guild) *string { return &g.DriveResourcesID }),
	"drive_starter_sheet_id": textField(func(g *models.Guild) *string { return &g.DriveStarterSheetID }),
	"archive_delay":          intField("archive_delay", func(g *models.Guild) *int { return &g.ArchiveDelay }),
}

var huntFields = map[string]field[*models.Hunt]{
	"name": {
		get: func(h *models.Hunt) string {
			if h.Name == nil {
				return ""
			}
			return *h.Name
		},
		set: func(h *models.Hunt, raw string) error {
			h.Name = &raw
			return nil
		},
	},
	"url":                textField(func(h *models.Hunt) *string { return &h.URL }),
	"url_sep":            textField(func(h *models.Hunt) *string { return &h.URLSep }),
	"round_url":          textField(func(h *models.Hunt) *string { return &h.RoundURL }),
	"drive_folder_id":    textField(func(h *models.Hunt) *string { return &h.DriveFolderID }),
	"nexus_sheet_id":     textField(func(h *models.Hunt) *string { return &h.NexusSheetID }),
	"drive_resources_id": textField(func(h *models.Hunt) *string { return &h.DriveResourcesID }),
}

var roundFields = map[string]field[*models.Round]{
	"name":    textField(func(r *models.Round) *string { return &r.Name }),
	"url":     textField(func(r *models.Round) *string { return &r.URL }),
	"url_sep": textField(func(r *models.Round) *string { return &r.URLSep }),
}

// builtinDefaults are the values Resolve falls back to when no scope in the
// chain sets the key.
var builtinDefaults = map[string]string{
	"url_sep":            "_",
	"archive_delay":      "300",
	"discussion_channel": "general",
	"use_voice_channels": "true",
}

func keys[T any](m map[string]field[T]) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GuildKeys returns the recognized guild setting names, sorted.
func GuildKeys() []string { return keys(guildFields) }

// HuntKeys returns the recognized hunt setting names, sorted.
func HuntKeys() []string { return keys(huntFields) }

// RoundKeys returns the recognized round setting names, sorted.
func RoundKeys() []string { return keys(roundFields) }

func values[T any](m map[string]field[T], owner T) map[string]string {
	out := make(map[string]string, len(m))
	for k, f := range m {
		out[k] = f.get(owner)
	}
	return out
}

// GuildValues returns every guild setting's current value by name.
func GuildValues(g *models.Guild) map[string]string { return values(guildFields, g) }

// HuntValues returns every hunt setting's current value by name.
func HuntValues(h *models.Hunt) map[string]string { return values(huntFields, h) }

// RoundValues returns every round setting's current value by name.
func RoundValues(r *models.Round) map[string]string { return values(roundFields, r) }

func update[T any](scope string, fields map[string]field[T], owner T, key, raw string) (old, updated string, err error) {
	f, ok := fields[key]
	if !ok {
		return "", "", &UnknownSettingError{Scope: scope, Key: key}
	}
	old = f.get(owner)
	if err := f.set(owner, raw); err != nil {
		return "", "", err
	}
	return old, f.get(owner), nil
}

// UpdateGuild writes a raw setting value onto the guild, returning the old
// and new values. The write is in-memory; the caller persists the row.
func UpdateGuild(g *models.Guild, key, raw string) (old, updated string, err error) {
	return update("guild", guildFields, g, key, raw)
}

// UpdateHunt writes a raw setting value onto the hunt.
func UpdateHunt(h *models.Hunt, key, raw string) (old, updated string, err error) {
	return update("hunt", huntFields, h, key, raw)
}

// UpdateRound writes a raw setting value onto the round.
func UpdateRound(r *models.Round, key, raw string) (old, updated string, err error) {
	return update("round", roundFields, r, key, raw)
}
