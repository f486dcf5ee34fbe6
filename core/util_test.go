package core

import (
	"testing"
	"time"
)

func TestCleanString(t *testing.T) {
	if got := CleanString("  Jean Dupont \t"); got != "Jean Dupont" {
		t.Errorf("CleanString() = %q", got)
	}
	if got := CleanString(" SALES ", true); got != "sales" {
		t.Errorf("CleanString(lower) = %q", got)
	}
	if got := CleanPhone("01 02 03 04 05"); got != "0102030405" {
		t.Errorf("CleanPhone() = %q", got)
	}
}

func TestIsYes(t *testing.T) {
	for _, s := range []string{"y", "YES", " true ", "o", "Oui"} {
		if !IsYes(s) {
			t.Errorf("IsYes(%q) = false", s)
		}
	}
	for _, s := range []string{"", "n", "no", "non", "1", "yess"} {
		if IsYes(s) {
			t.Errorf("IsYes(%q) = true", s)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{name: "dashes", in: "25-03-2025", want: time.Date(2025, 3, 25, 0, 0, 0, 0, time.Local)},
		{name: "slashes", in: " 01/12/2024 ", want: time.Date(2024, 12, 1, 0, 0, 0, 0, time.Local)},
		{name: "iso", in: "2025-03-25", wantErr: true},
		{name: "impossible day", in: "31-02-2025", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("05/06/2025 14:30")
	if err != nil {
		t.Fatalf("ParseDateTime() unexpected error = %v", err)
	}
	if want := time.Date(2025, 6, 5, 14, 30, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("ParseDateTime() = %v, want %v", got, want)
	}
	for _, in := range []string{"05-06-2025", "05-06-2025 25:00", "2025-06-05 14:30"} {
		if _, err = ParseDateTime(in); err == nil {
			t.Errorf("ParseDateTime(%q) error = nil", in)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		str     string
		wantErr bool
	}{
		{in: "10000", want: 1000000, str: "10000.00"},
		{in: "8500.5", want: 850050, str: "8500.50"},
		{in: "12,05", want: 1205, str: "12.05"},
		{in: "0", want: 0, str: "0.00"},
		{in: " 7.3 ", want: 730, str: "7.30"},
		{in: "-5", wantErr: true},
		{in: "+5", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: ".5", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "1.-5", wantErr: true},
		{in: "1.+5", wantErr: true},
		{in: "1,-5", wantErr: true},
		{in: "1 000", wantErr: true},
		{in: "99999999999999999", wantErr: true},
		{in: "92233720368547757", want: 9223372036854775700, str: "92233720368547757.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseAmount() = %d, want %d", got, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %s, want %s", got.String(), tt.str)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		tag     string
		wantErr string
	}{
		{name: "national phone", value: "01 02 03 04 05", tag: "frphone"},
		{name: "dotted phone", value: "06.12.34.56.78", tag: "frphone"},
		{name: "international phone", value: "+33612345678", tag: "frphone"},
		{name: "bad phone", value: "12345", tag: "frphone", wantErr: frPhoneText},
		{name: "person name", value: "Chloé D'Arc-Dubois", tag: "personname"},
		{name: "bad person name", value: "R2D2", tag: "personname", wantErr: personNameText},
		{name: "client name", value: "Jean Dupont", tag: "clientname"},
		{name: "bad client name", value: "Jean O'Neil", tag: "clientname", wantErr: clientNameText},
		{name: "collaborator email", value: "bruno@epicevent.com", tag: "collabemail"},
		{name: "bad collaborator email", value: "bruno@epicevent", tag: "collabemail", wantErr: collabEmailText},
		{name: "client email", value: "jean@nova.com", tag: "clientemail"},
		{name: "bad client email", value: "jean.nova.com", tag: "clientemail", wantErr: clientEmailText},
		{name: "required", value: "", tag: "required", wantErr: requiredText},
		{name: "date", value: "25/03/2025", tag: "date"},
		{name: "bad date", value: "2025-03-25", tag: "date", wantErr: dateText},
		{name: "bad datetime", value: "25-03-2025", tag: "datetime_fr", wantErr: dateTimeText},
		{name: "amount", value: "15000.50", tag: "amount"},
		{name: "bad amount", value: "-1", tag: "amount", wantErr: amountText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVar("field", tt.value, tt.tag)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("ValidateVar() unexpected error = %v", err)
			case tt.wantErr != "" && (err == nil || err.Error() != tt.wantErr):
				t.Errorf("ValidateVar() error = %v, wantErr %s", err, tt.wantErr)
			case err != nil && !IsValidationError(err):
				t.Errorf("ValidateVar() error is not a validation error: %T", err)
			}
		})
	}
}

func TestConfig_DatabaseFile(t *testing.T) {
	conf := DatabaseConfig{Files: map[string]string{ModeMain: "main.db", ModeDemo: "demo.db"}}
	if got, err := conf.DatabaseFile(""); err != nil || got != "main.db" {
		t.Errorf("DatabaseFile(\"\") = %s, %v", got, err)
	}
	if got, err := conf.DatabaseFile(ModeDemo); err != nil || got != "demo.db" {
		t.Errorf("DatabaseFile(demo) = %s, %v", got, err)
	}
	if _, err := conf.DatabaseFile(ModeTest); err == nil {
		t.Error("DatabaseFile(test) error = nil")
	}
}
