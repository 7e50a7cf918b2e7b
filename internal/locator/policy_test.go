package locator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/cache"
	"github.com/temirov/whatgitbranch/internal/locator"
)

func TestPermitsScan(testFramework *testing.T) {
	invocations := []locator.Invocation{
		locator.InvocationRequest,
		locator.InvocationHeartbeat,
		locator.InvocationCommandLine,
		locator.InvocationMaintenance,
	}

	testCases := []struct {
		setting          locator.ScanWhen
		activeCacheEmpty bool
		expected         []bool
	}{
		{setting: locator.ScanWhenNever, expected: []bool{false, false, false, false}},
		{setting: locator.ScanWhenOff, expected: []bool{false, false, false, false}},
		{setting: locator.ScanWhenAlways, expected: []bool{true, true, true, true}},
		{setting: locator.ScanWhenHTTPRequest, expected: []bool{true, true, true, true}},
		{setting: locator.ScanWhenManual, expected: []bool{false, false, false, true}},
		{setting: locator.ScanWhenManual, activeCacheEmpty: true, expected: []bool{true, true, true, true}},
		{setting: locator.ScanWhenCLI, expected: []bool{false, false, true, true}},
		{setting: locator.ScanWhenHeartbeat, expected: []bool{false, true, true, true}},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(string(testCase.setting), func(subtest *testing.T) {
			for invocationIndex, invocation := range invocations {
				require.Equal(subtest, testCase.expected[invocationIndex], locator.PermitsScan(testCase.setting, invocation, testCase.activeCacheEmpty), invocation.String())
			}
		})
	}
}

func TestParseScanWhen(testFramework *testing.T) {
	defaultSetting, defaultError := locator.ParseScanWhen("")
	require.NoError(testFramework, defaultError)
	require.Equal(testFramework, locator.ScanWhenHeartbeat, defaultSetting)

	parsedSetting, parseError := locator.ParseScanWhen(" CLI ")
	require.NoError(testFramework, parseError)
	require.Equal(testFramework, locator.ScanWhenCLI, parsedSetting)

	_, unknownError := locator.ParseScanWhen("sometimes")
	require.ErrorIs(testFramework, unknownError, locator.ErrUnknownScanWhen)
}

func TestBackendFor(testFramework *testing.T) {
	require.Equal(testFramework, cache.BackendExpiring, locator.BackendFor(locator.ScanWhenAlways))
	require.Equal(testFramework, cache.BackendExpiring, locator.BackendFor(locator.ScanWhenHTTPRequest))
	for _, setting := range []locator.ScanWhen{locator.ScanWhenNever, locator.ScanWhenOff, locator.ScanWhenManual, locator.ScanWhenCLI, locator.ScanWhenHeartbeat} {
		require.Equal(testFramework, cache.BackendDurable, locator.BackendFor(setting), string(setting))
	}
}
