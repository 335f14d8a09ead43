package adapters

import (
	"context"
	"errors"
	"testing"

	"notetoolbar/models"
)

type noticeLog []string

func (n *noticeLog) Notice(msg string) { *n = append(*n, msg) }

func echo(enabled bool) *Func {
	return &Func{Enabled: enabled, Fn: func(_ context.Context, cfg models.ScriptConfig) (string, error) {
		return "out:" + cfg.Expression, nil
	}}
}

func failing() *Func {
	return &Func{Enabled: true, Fn: func(context.Context, models.ScriptConfig) (string, error) {
		return "", errors.New("syntax error")
	}}
}

func TestGetChecksScriptingAndAdapter(t *testing.T) {
	scripting := true
	r := NewRegistry(func() bool { return scripting }, nil)
	r.Register(models.ItemDataview, echo(true))
	r.Register(models.ItemTemplater, echo(false))

	tests := []struct {
		name      string
		engine    models.ItemType
		scripting bool
		wantErr   bool
	}{
		{"enabled adapter", models.ItemDataview, true, false},
		{"disabled adapter", models.ItemTemplater, true, true},
		{"missing adapter", models.ItemJsEngine, true, true},
		{"scripting off", models.ItemDataview, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scripting = tt.scripting
			_, err := r.Get(tt.engine)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			var unavailable *models.AdapterUnavailableError
			if tt.wantErr && !errors.As(err, &unavailable) {
				t.Errorf("err = %T, want AdapterUnavailableError", err)
			}
		})
	}
}

func TestEvaluateModes(t *testing.T) {
	var notices noticeLog
	r := NewRegistry(func() bool { return true }, &notices)
	r.Register(models.ItemJavaScript, failing())
	ctx := context.Background()

	if _, err := r.Evaluate(ctx, models.ItemJavaScript, models.ScriptConfig{}, Display); err == nil {
		t.Error("display mode should return the error")
	}
	if len(notices) != 1 {
		t.Errorf("notices = %v, want one", notices)
	}

	out, err := r.Evaluate(ctx, models.ItemJavaScript, models.ScriptConfig{}, Report)
	if err != nil || out != FailedText {
		t.Errorf("report mode = %q, %v", out, err)
	}

	out, err = r.Evaluate(ctx, models.ItemJavaScript, models.ScriptConfig{}, Ignore)
	if err == nil || out != "" {
		t.Errorf("ignore mode = %q, %v", out, err)
	}
	if len(notices) != 1 {
		t.Errorf("report/ignore modes raised notices: %v", notices)
	}
}

func TestEvaluateSuccess(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register(models.ItemDataview, echo(true))
	out, err := r.Evaluate(context.Background(), models.ItemDataview, models.ScriptConfig{Expression: "1+1"}, Display)
	if err != nil || out != "out:1+1" {
		t.Errorf("out=%q err=%v", out, err)
	}
}

func TestUseRecoversPanics(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register(models.ItemJsEngine, &Func{Enabled: true, Fn: func(context.Context, models.ScriptConfig) (string, error) {
		panic("boom")
	}})
	if _, err := r.Use(context.Background(), models.ItemJsEngine, models.ScriptConfig{}); err == nil {
		t.Error("panic not converted to an error")
	}
}
