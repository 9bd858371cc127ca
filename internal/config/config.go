package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GitLab GitLabConfig `yaml:"gitlab"`
	Agent  AgentConfig  `yaml:"agent"`
}

type GitLabConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type AgentConfig struct {
	// TagPattern filters identity-token names when resolving bot mentions
	TagPattern string `yaml:"tag_pattern"`
	// MCPEnabled appends the MCP integration note to generated prompts
	MCPEnabled bool `yaml:"mcp_enabled"`
	// MaxGroupDepth bounds the ancestor-group walk during mention detection
	MaxGroupDepth int `yaml:"max_group_depth"`
}

const (
	defaultTagPattern    = "^junie"
	defaultMaxGroupDepth = 10
)

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var config Config
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// env vars override file values for secrets and per-run settings
		config.loadFromEnv()
		config.applyDefaults()

		return &config, nil
	}

	// no config file, build everything from the environment
	cfg := &Config{}
	cfg.loadFromEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) loadFromEnv() {
	if token := os.Getenv("GITLAB_TOKEN"); token != "" {
		c.GitLab.Token = token
	}
	if url := os.Getenv("CI_SERVER_URL"); url != "" {
		c.GitLab.BaseURL = url
	}
	if pattern := os.Getenv("JUNIE_TAG_PATTERN"); pattern != "" {
		c.Agent.TagPattern = pattern
	}
	if mcpStr := os.Getenv("JUNIE_MCP_ENABLED"); mcpStr != "" {
		if mcp, err := strconv.ParseBool(mcpStr); err == nil {
			c.Agent.MCPEnabled = mcp
		}
	}
	if depthStr := os.Getenv("JUNIE_MAX_GROUP_DEPTH"); depthStr != "" {
		if depth, err := strconv.Atoi(depthStr); err == nil && depth > 0 {
			c.Agent.MaxGroupDepth = depth
		}
	}
}

func (c *Config) applyDefaults() {
	if c.GitLab.BaseURL == "" {
		c.GitLab.BaseURL = "https://gitlab.com"
	}
	if c.Agent.TagPattern == "" {
		c.Agent.TagPattern = defaultTagPattern
	}
	if c.Agent.MaxGroupDepth <= 0 {
		c.Agent.MaxGroupDepth = defaultMaxGroupDepth
	}
}
