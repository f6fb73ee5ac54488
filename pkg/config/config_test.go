package config

import "testing"

func TestParseDefaultsFamilyFilter(t *testing.T) {
	cfg, err := Parse([]byte(`
databases:
  - dbname: ripe
    host: whois.ripe.net
    port: 4444
  - dbname: arin
    host: rr.arin.net
    port: 43
    family_filter: v4
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Databases) != 2 {
		t.Fatalf("expected 2 databases, got %d", len(cfg.Databases))
	}
	if cfg.Databases[0].FamilyFilter != FamilyBoth {
		t.Fatalf("expected default family_filter %q, got %q", FamilyBoth, cfg.Databases[0].FamilyFilter)
	}
	if cfg.Databases[1].FamilyFilter != FamilyV4 {
		t.Fatalf("expected family_filter v4, got %q", cfg.Databases[1].FamilyFilter)
	}
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	_, err := Parse([]byte(`
databases:
  - dbname: ripe
    host: a
  - dbname: ripe
    host: b
`))
	if err == nil {
		t.Fatalf("expected an error for duplicate dbname")
	}
}

func TestParseRejectsBadFamilyFilter(t *testing.T) {
	_, err := Parse([]byte(`
databases:
  - dbname: ripe
    host: a
    family_filter: v5
`))
	if err == nil {
		t.Fatalf("expected an error for invalid family_filter")
	}
}
