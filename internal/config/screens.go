package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rpattn/trackgrid/internal/domain"
)

//go:embed screens.yaml
var defaultScreens []byte

type screensDocument struct {
	Screens []domain.ScreenDefinition `yaml:"screens"`
}

// DefaultScreens returns the built-in screen definitions.
func DefaultScreens() ([]domain.ScreenDefinition, error) {
	return DecodeScreens(bytes.NewReader(defaultScreens))
}

// LoadScreens reads screen definitions from path, or the built-in set when
// path is empty.
func LoadScreens(path string) ([]domain.ScreenDefinition, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultScreens()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open screens file: %w", err)
	}
	defer file.Close()
	return DecodeScreens(file)
}

// DecodeScreens parses and validates a screens document.
func DecodeScreens(r io.Reader) ([]domain.ScreenDefinition, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc screensDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("screens document is empty")
		}
		return nil, fmt.Errorf("decode screens: %w", err)
	}
	if len(doc.Screens) == 0 {
		return nil, errors.New("screens document defines no screens")
	}
	for i := range doc.Screens {
		if err := validateScreen(doc.Screens[i]); err != nil {
			return nil, err
		}
	}
	return doc.Screens, nil
}

func validateScreen(def domain.ScreenDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return errors.New("screen name is required")
	}
	switch def.Source.Kind {
	case domain.SourceReport:
		if strings.TrimSpace(def.Source.ReportType) == "" {
			return fmt.Errorf("screen %s: report source requires report_type", def.Name)
		}
	case domain.SourceList:
		if strings.TrimSpace(def.Source.Path) == "" {
			return fmt.Errorf("screen %s: list source requires path", def.Name)
		}
	case domain.SourceFile:
	default:
		return fmt.Errorf("screen %s: unknown source kind %q", def.Name, def.Source.Kind)
	}
	if len(def.Fields) == 0 {
		return fmt.Errorf("screen %s: at least one field is required", def.Name)
	}
	for _, field := range def.Fields {
		if !field.Filter.Valid() {
			return fmt.Errorf("screen %s: field %s: unknown filter %q", def.Name, field.Key, field.Filter)
		}
		if field.Expand != nil && strings.TrimSpace(field.Expand.List) == "" {
			return fmt.Errorf("screen %s: field %s: expand requires list", def.Name, field.Key)
		}
	}
	return nil
}
