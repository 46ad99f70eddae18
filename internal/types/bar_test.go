package types

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type BarTestSuite struct {
	suite.Suite
}

func TestBarSuite(t *testing.T) {
	suite.Run(t, new(BarTestSuite))
}

func (suite *BarTestSuite) TestBarZeroValues() {
	bar := Bar{}

	suite.True(bar.Time.IsZero())
	suite.Equal(0.0, bar.Open)
	suite.Equal(0.0, bar.Volume)
	suite.True(bar.AdjClose.IsNone())
}

func (suite *BarTestSuite) TestAdjClose() {
	bar := Bar{Close: 102, AdjClose: optional.Some(101.25)}

	suite.True(bar.AdjClose.IsSome())
	suite.Equal(101.25, bar.AdjClose.Unwrap())
}

func (suite *BarTestSuite) TestDate() {
	ny, err := time.LoadLocation("America/New_York")
	suite.Require().NoError(err)

	// 09:30 New York on Jan 2 is still Jan 2 even though UTC agrees here
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Date(time.Date(2024, 1, 2, 9, 30, 0, 0, ny)))

	// 23:00 London on Jan 1 stays Jan 1
	london, err := time.LoadLocation("Europe/London")
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Date(time.Date(2024, 1, 1, 23, 0, 0, 0, london)))
}

func (suite *BarTestSuite) TestInRange() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		date     time.Time
		expected bool
	}{
		{name: "start is inclusive", date: start, expected: true},
		{name: "inside", date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), expected: true},
		{name: "end is exclusive", date: end, expected: false},
		{name: "before start", date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), expected: false},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, Bar{Time: tc.date}.InRange(start, end))
		})
	}
}
