package golpp

import (
	"context"
	"fmt"

	"gitlab.com/d21d3q/golpp/internal/lpp"
	internalopts "gitlab.com/d21d3q/golpp/internal/options"
)

// CustomType declares a proprietary data type decoded as raw bytes.
type CustomType struct {
	ID   uint8
	Name string
	Size int
}

// Options configures decoding.
type Options struct {
	CustomTypes []CustomType
	AppSKeyHex  string
	NwkSKeyHex  string
	SkipMIC     bool
}

func (opts Options) toInternal(ctx context.Context) (context.Context, internalopts.SessionKeys, error) {
	app, err := internalopts.ParseKeyHex(opts.AppSKeyHex)
	if err != nil {
		return ctx, internalopts.SessionKeys{}, fmt.Errorf("appskey: %w", err)
	}
	nwk, err := internalopts.ParseKeyHex(opts.NwkSKeyHex)
	if err != nil {
		return ctx, internalopts.SessionKeys{}, fmt.Errorf("nwkskey: %w", err)
	}
	keys := internalopts.SessionKeys{AppSKey: app, NwkSKey: nwk, SkipMIC: opts.SkipMIC}
	return internalopts.WithSessionKeys(ctx, keys), keys, nil
}

func (opts Options) decoder() (*lpp.Decoder, error) {
	dec := lpp.NewDecoder()
	for _, ct := range opts.CustomTypes {
		if err := dec.AddDataType(ct.ID, ct.Name, ct.Size); err != nil {
			return nil, err
		}
	}
	return dec, nil
}
