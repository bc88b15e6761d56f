package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultCatalogYAML []byte

// LoadCatalog 는 path 의 YAML 카탈로그를 읽는다. path 가 비어있으면 내장 기본값을 사용한다.
func LoadCatalog(path string) (CatalogConfig, error) {
	data := defaultCatalogYAML
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return CatalogConfig{}, fmt.Errorf("read catalog %s: %w", path, err)
		}
		data = raw
	}
	return ParseCatalog(data)
}

// ParseCatalog 는 YAML 바이트를 카탈로그로 변환하고 누락된 임계값을 기본값으로 채운다.
func ParseCatalog(data []byte) (CatalogConfig, error) {
	var catalog CatalogConfig
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return CatalogConfig{}, fmt.Errorf("parse catalog yaml: %w", err)
	}
	catalog.Monitoring = withMonitoringDefaults(catalog.Monitoring)
	catalog.Fraud = withFraudDefaults(catalog.Fraud)
	return catalog, nil
}

func withMonitoringDefaults(m MonitoringConfig) MonitoringConfig {
	if m.SpikeThreshold <= 0 {
		m.SpikeThreshold = 1000
	}
	if m.FraudThreshold <= 0 {
		m.FraudThreshold = 10000
	}
	if m.AlertCooldownSeconds <= 0 {
		m.AlertCooldownSeconds = 3600
	}
	return m
}

func withFraudDefaults(f FraudConfig) FraudConfig {
	if f.RapidRequestThreshold <= 0 {
		f.RapidRequestThreshold = 100
	}
	if f.RapidRequestWindowSeconds <= 0 {
		f.RapidRequestWindowSeconds = 300
	}
	if f.HighTokenThreshold <= 0 {
		f.HighTokenThreshold = 50000
	}
	if f.UnusualHourStart == 0 && f.UnusualHourEnd == 0 {
		f.UnusualHourStart = 2
		f.UnusualHourEnd = 6
	}
	if f.MultipleIPThreshold <= 0 {
		f.MultipleIPThreshold = 5
	}
	if f.MultipleIPWindowSeconds <= 0 {
		f.MultipleIPWindowSeconds = 3600
	}
	if f.BlockTTLHours <= 0 {
		f.BlockTTLHours = 24
	}
	return f
}
