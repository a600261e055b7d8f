package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

// sampleConfig is a config struct for testing
type sampleConfig struct {
	Ticker  string   `json:"ticker" jsonschema:"description=Symbol to download,default=^GSPC"`
	Days    int      `json:"days,omitempty" jsonschema:"description=Number of trading days"`
	Enabled bool     `json:"enabled"`
	Tags    []string `json:"tags,omitempty"`
}

type nestedConfig struct {
	ID     string       `json:"id"`
	Config sampleConfig `json:"config"`
}

func (suite *UtilsTestSuite) decode(schema string) map[string]any {
	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))

	return result
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigInlinesProperties() {
	schema, err := GetSchemaFromConfig(sampleConfig{})
	suite.Require().NoError(err)

	result := suite.decode(schema)
	suite.Contains(result, "$schema")
	suite.NotContains(result, "$ref")
	suite.NotContains(result, "$defs")

	properties, ok := result["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "ticker")

	ticker, ok := properties["ticker"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("^GSPC", ticker["default"])
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigNested() {
	schema, err := GetSchemaFromConfig(nestedConfig{})
	suite.Require().NoError(err)

	properties, ok := suite.decode(schema)["properties"].(map[string]any)
	suite.Require().True(ok)

	config, ok := properties["config"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(config, "properties")
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigPointer() {
	schema, err := GetSchemaFromConfig(&sampleConfig{})
	suite.NoError(err)
	suite.Contains(schema, "\n  ")
}
