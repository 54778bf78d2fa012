package db

import "testing"

func TestConfig_DSN(t *testing.T) {
	cfg := NewConfig("root", "secret", "127.0.0.1", "3306", "scalpbot")
	want := "root:secret@tcp(127.0.0.1:3306)/scalpbot?charset=utf8mb4&parseTime=true&loc=Local"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %s", got)
	}

	bare := Config{User: "u", Password: "p", Host: "db", DBName: "x"}
	if got := bare.DSN(); got != "u:p@tcp(db)/x?charset=utf8mb4&parseTime=false&loc=Local" {
		t.Errorf("DSN = %s", got)
	}
}
