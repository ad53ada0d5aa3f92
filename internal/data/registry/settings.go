package registry

import (
	apperrors "amcli/internal/core/errors"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
)

type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func (r *Registry) Settings(ctx context.Context) ([]Setting, error) {
	settings := make([]Setting, 0)
	err := r.db.Query(ctx,
		`SELECT key, value, type, COALESCE(description, '') FROM configuration ORDER BY key`,
		func(rows *sql.Rows) error {
			var s Setting
			if err := rows.Scan(&s.Key, &s.Value, &s.Type, &s.Description); err != nil {
				return err
			}
			settings = append(settings, s)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *Registry) Setting(ctx context.Context, key string) (Setting, bool, error) {
	var s Setting
	found, err := r.db.QueryRow(ctx,
		`SELECT key, value, type, COALESCE(description, '') FROM configuration WHERE key = ?`,
		[]any{&s.Key, &s.Value, &s.Type, &s.Description}, key)
	if err != nil || !found {
		return Setting{}, false, err
	}
	return s, true, nil
}

// SetSetting updates a setting, keeping its declared type. Unknown keys are
// stored as strings.
func (r *Registry) SetSetting(ctx context.Context, key, value string) (Setting, error) {
	current, found, err := r.Setting(ctx, key)
	if err != nil {
		return Setting{}, err
	}
	typ := "string"
	if found {
		typ = current.Type
	}
	if err := checkSettingValue(key, typ, value); err != nil {
		return Setting{}, err
	}

	if _, err := r.db.Exec(ctx, `
INSERT INTO configuration (key, value, type) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value, typ); err != nil {
		return Setting{}, err
	}
	r.metrics.ObserveRegistryWrite("setting", "set")

	current.Key, current.Value, current.Type = key, value, typ
	return current, nil
}

func checkSettingValue(key, typ, value string) error {
	var err error
	switch typ {
	case "boolean":
		_, err = strconv.ParseBool(value)
	case "number":
		_, err = strconv.ParseFloat(value, 64)
	case "json":
		if !json.Valid([]byte(value)) {
			err = fmt.Errorf("not valid JSON")
		}
	}
	if err != nil {
		return apperrors.ValidationField(key, fmt.Sprintf("'%s' is not a valid %s value", value, typ))
	}
	return nil
}
