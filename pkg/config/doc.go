// Package config loads siloscript's composition-root configuration from
// an optional YAML file using gopkg.in/yaml.v3, with environment
// variables as the final override layer.
package config
