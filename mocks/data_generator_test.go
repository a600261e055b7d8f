package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DataGeneratorTestSuite struct {
	suite.Suite
}

func TestDataGeneratorSuite(t *testing.T) {
	suite.Run(t, new(DataGeneratorTestSuite))
}

func (suite *DataGeneratorTestSuite) TestTradingDaysSkipWeekends() {
	// 1985-01-05 is a Saturday
	days := TradingDays(time.Date(1985, 1, 3, 0, 0, 0, 0, time.UTC), 4)
	suite.Equal([]time.Time{
		time.Date(1985, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(1985, 1, 4, 0, 0, 0, 0, time.UTC),
		time.Date(1985, 1, 7, 0, 0, 0, 0, time.UTC),
		time.Date(1985, 1, 8, 0, 0, 0, 0, time.UTC),
	}, days)
}

func (suite *DataGeneratorTestSuite) TestGenerateShape() {
	tbl := NewDataGenerator(42).Generate(DefaultConfig())

	levels, err := tbl.Levels()
	suite.NoError(err)
	suite.Equal(2, levels)
	suite.Equal(500, tbl.Rows())
	suite.Len(tbl.Columns, 5)
}

func (suite *DataGeneratorTestSuite) TestReproducible() {
	a := NewDataGenerator(7).GenerateSeries(DefaultConfig())
	b := NewDataGenerator(7).GenerateSeries(DefaultConfig())
	suite.Equal(a, b)

	suite.NoError(a.Validate())
}
