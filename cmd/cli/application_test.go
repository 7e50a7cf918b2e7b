package cli_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/cmd/cli"
	"github.com/temirov/whatgitbranch/internal/session"
)

func TestEmbeddedDefaultConfigurationMatchesDefaults(testFramework *testing.T) {
	content, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testFramework, "yaml", configurationType)

	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)
	require.NoError(testFramework, viperInstance.ReadConfig(bytes.NewReader(content)))

	var configuration cli.ApplicationConfiguration
	require.NoError(testFramework, viperInstance.Unmarshal(&configuration))

	defaults := session.DefaultConfiguration()
	repositories := configuration.Repositories
	require.Equal(testFramework, "info", configuration.Common.LogLevel)
	require.Equal(testFramework, "structured", configuration.Common.LogFormat)
	require.Equal(testFramework, defaults.Root, repositories.Root)
	require.Equal(testFramework, defaults.Scan.When, repositories.Scan.When)
	require.Equal(testFramework, defaults.Scan.MaximumDepth, repositories.Scan.MaximumDepth)
	require.Equal(testFramework, defaults.Scan.Exclude, repositories.Scan.Exclude)
	require.Equal(testFramework, defaults.Scan.LeaseTimeToLive, repositories.Scan.LeaseTimeToLive)
	require.Equal(testFramework, defaults.Cache.Directory, repositories.Cache.Directory)
	require.Equal(testFramework, 10*time.Minute, repositories.Cache.TimeToLive)
	require.Equal(testFramework, defaults.Heartbeat.Address, repositories.Heartbeat.Address)
	require.Empty(testFramework, repositories.GitHubRepositories)
	require.Empty(testFramework, repositories.DisplayNames)
	require.NoError(testFramework, repositories.Validate())
}

func TestEmbeddedDefaultConfigurationReturnsCopy(testFramework *testing.T) {
	first, _ := cli.EmbeddedDefaultConfiguration()
	first[0] = '#'
	second, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(testFramework, first[0], second[0])
}
