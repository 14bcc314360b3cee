package settings

import (
	"strconv"

	"github.com/pwolcott/huntmaster/internal/models"
)

// Chain is the scope chain for one resolution, most specific first. Any link
// may be nil; a nil link is simply skipped.
type Chain struct {
	Round *models.Round
	Hunt  *models.Hunt
	Guild *models.Guild
}

// Resolve walks the chain from round to hunt to guild and returns the first
// non-empty value for key, falling back to the built-in default. A key no
// scope in the chain recognizes is an UnknownSettingError.
func Resolve(c Chain, key string) (string, error) {
	known := false

	if c.Round != nil {
		if f, ok := roundFields[key]; ok {
			known = true
			if v := f.get(c.Round); v != "" {
				return v, nil
			}
		}
	}
	if c.Hunt != nil {
		if f, ok := huntFields[key]; ok {
			known = true
			if v := f.get(c.Hunt); v != "" {
				return v, nil
			}
		}
	}
	if c.Guild != nil {
		if f, ok := guildFields[key]; ok {
			known = true
			if v := f.get(c.Guild); v != "" {
				return v, nil
			}
		}
	}

	// With a partial chain, still recognize keys the absent scopes define.
	if !known {
		_, inRound := roundFields[key]
		_, inHunt := huntFields[key]
		_, inGuild := guildFields[key]
		known = inRound || inHunt || inGuild
	}
	if !known {
		return "", &UnknownSettingError{Scope: "any", Key: key}
	}

	if d, ok := builtinDefaults[key]; ok {
		return d, nil
	}
	return "", nil
}

// ResolveInt resolves key through the chain and parses it as an integer.
func ResolveInt(c Chain, key string) (int, error) {
	v, err := Resolve(c, key)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &TypeConversionError{Key: key, Raw: v, Want: "integer"}
	}
	return n, nil
}
