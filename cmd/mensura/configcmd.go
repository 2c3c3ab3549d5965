package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

// configDocument mirrors the configuration defaults. Kept separate from
// config.Config so the generated file carries yaml keys in a readable
// top-to-bottom order.
type configDocument struct {
	Convert struct {
		SwapXY        bool `yaml:"swap_xy"`
		FallbackSRID  int  `yaml:"fallback_srid"`
		PerCodeLayers bool `yaml:"per_code_layers"`
		Surfaces      bool `yaml:"surfaces"`
	} `yaml:"convert"`
	Export struct {
		OutputDir string `yaml:"output_dir"`
		Timestamp bool   `yaml:"timestamp"`
	} `yaml:"export"`
	Watch struct {
		Dir        string   `yaml:"dir"`
		Extensions []string `yaml:"extensions"`
		Debounce   string   `yaml:"debounce"`
	} `yaml:"watch"`
	Delivery struct {
		Type   string `yaml:"type"`
		Prefix string `yaml:"prefix"`
	} `yaml:"delivery"`
	Server struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Metrics struct {
		Enabled   bool   `yaml:"enabled"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func defaultConfigDocument() configDocument {
	var doc configDocument
	doc.Convert.SwapXY = true
	doc.Convert.Surfaces = true
	doc.Export.OutputDir = "."
	doc.Export.Timestamp = true
	doc.Watch.Extensions = []string{".xml", ".landxml"}
	doc.Watch.Debounce = "2s"
	doc.Delivery.Type = "none"
	doc.Server.Enabled = true
	doc.Server.Host = "0.0.0.0"
	doc.Server.Port = 8080
	doc.Metrics.Enabled = true
	doc.Metrics.Namespace = "mensura"
	doc.Logging.Level = "info"
	doc.Logging.Format = "json"
	return doc
}

func runConfigInit(_ *cobra.Command, args []string) error {
	path := "config.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(defaultConfigDocument())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}
