package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON reads a backup written by any earlier version of the app.
// Settings fields missing from the payload keep their defaults, and a client
// show flag missing from a quotation or invoice is on when its field has a value.
// Values present in the payload, including an explicit false, are kept.
func (b *Backup) UnmarshalJSON(data []byte) error {
	type plain Backup
	var payload struct {
		plain
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*b = Backup(payload.plain)

	if raw := bytes.TrimSpace(payload.Settings); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		settings := DefaultSettings()
		// a payload without a revision predates deliberate zero rates
		settings.Revision = 0
		if err := json.Unmarshal(raw, &settings); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
		b.Settings = &settings
	}

	var flags struct {
		Quotations []documentFlags `json:"quotations"`
		Invoices   []documentFlags `json:"invoices"`
	}
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	for i := range b.Quotations {
		if i < len(flags.Quotations) {
			flags.Quotations[i].Client.applyTo(&b.Quotations[i].Client)
		}
	}
	for i := range b.Invoices {
		if i < len(flags.Invoices) {
			flags.Invoices[i].Client.applyTo(&b.Invoices[i].Client)
		}
	}
	return nil
}

type documentFlags struct {
	Client clientFlags `json:"clientDetails"`
}

// clientFlags tells an absent show flag apart from an explicit false
type clientFlags struct {
	ShowName        *bool `json:"showName"`
	ShowAddress     *bool `json:"showAddress"`
	ShowPhone       *bool `json:"showPhone"`
	ShowProjectName *bool `json:"showProjectName"`
}

func (f clientFlags) applyTo(c *ClientDetails) {
	c.ShowName = flagOr(f.ShowName, c.Name != "")
	c.ShowAddress = flagOr(f.ShowAddress, c.Address != "")
	c.ShowPhone = flagOr(f.ShowPhone, c.Phone != "")
	c.ShowProjectName = flagOr(f.ShowProjectName, c.ProjectName != "")
}

func flagOr(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}
