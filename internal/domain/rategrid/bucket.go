package rategrid

import (
	"fmt"
	"strconv"

	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/shopspring/decimal"
)

// DurationBucket is a contract duration, in months, as priced by the grids.
type DurationBucket int

const (
	Duration1Month   DurationBucket = 1
	Duration2Months  DurationBucket = 2
	Duration3Months  DurationBucket = 3
	Duration6Months  DurationBucket = 6
	Duration12Months DurationBucket = 12
)

// AllDurationBuckets returns the buckets in ascending order.
func AllDurationBuckets() []DurationBucket {
	return []DurationBucket{Duration1Month, Duration2Months, Duration3Months, Duration6Months, Duration12Months}
}

// IsValid reports whether d is one of the priced durations.
func (d DurationBucket) IsValid() bool {
	for _, b := range AllDurationBuckets() {
		if b == d {
			return true
		}
	}
	return false
}

// Months returns the bucket as a month count.
func (d DurationBucket) Months() int {
	return int(d)
}

// ClassifyDuration maps a duration in months to the smallest bucket covering it.
// Durations outside 1..12 months have no bucket.
func ClassifyDuration(months int) (DurationBucket, bool) {
	if months <= 0 {
		return 0, false
	}
	for _, b := range AllDurationBuckets() {
		if months <= int(b) {
			return b, true
		}
	}
	return 0, false
}

// ParseDurationBucket parses "6" into Duration6Months.
func ParseDurationBucket(s string) (DurationBucket, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d := DurationBucket(n)
	if !d.IsValid() {
		return 0, fmt.Errorf("unsupported duration %d months", n)
	}
	return d, nil
}

// AttributeBucket identifies a range of the class-defining attribute.
type AttributeBucket string

const (
	BucketCV1To2     AttributeBucket = "CV_1_2"
	BucketCV3To6     AttributeBucket = "CV_3_6"
	BucketCV7To10    AttributeBucket = "CV_7_10"
	BucketCV11To14   AttributeBucket = "CV_11_14"
	BucketCV15To23   AttributeBucket = "CV_15_23"
	BucketCV24Plus   AttributeBucket = "CV_24_PLUS"
	BucketT0To3_5    AttributeBucket = "T_0_3_5"
	BucketT3_5To5    AttributeBucket = "T_3_5_5"
	BucketT5To10     AttributeBucket = "T_5_10"
	BucketT10To20    AttributeBucket = "T_10_20"
	BucketT20Plus    AttributeBucket = "T_20_PLUS"
	BucketCC0To50    AttributeBucket = "CC_0_50"
	BucketCC51To125  AttributeBucket = "CC_51_125"
	BucketCC126To250 AttributeBucket = "CC_126_250"
	BucketCC251Plus  AttributeBucket = "CC_251_PLUS"
)

// bucketBound is an inclusive upper bound; an unbounded last bucket has no max.
type bucketBound struct {
	code      AttributeBucket
	max       decimal.Decimal
	unbounded bool
}

func upTo(code AttributeBucket, max string) bucketBound {
	return bucketBound{code: code, max: decimal.RequireFromString(max)}
}

func above(code AttributeBucket) bucketBound {
	return bucketBound{code: code, unbounded: true}
}

var payloadBounds = []bucketBound{
	upTo(BucketT0To3_5, "3.5"),
	upTo(BucketT3_5To5, "5"),
	upTo(BucketT5To10, "10"),
	upTo(BucketT10To20, "20"),
	above(BucketT20Plus),
}

var classBounds = map[vehicle.Class][]bucketBound{
	vehicle.ClassPrivate: {
		upTo(BucketCV1To2, "2"),
		upTo(BucketCV3To6, "6"),
		upTo(BucketCV7To10, "10"),
		upTo(BucketCV11To14, "14"),
		upTo(BucketCV15To23, "23"),
		above(BucketCV24Plus),
	},
	vehicle.ClassCommercialGoods: payloadBounds,
	vehicle.ClassPublicGoods:     payloadBounds,
	vehicle.ClassTwoWheeler: {
		upTo(BucketCC0To50, "50"),
		upTo(BucketCC51To125, "125"),
		upTo(BucketCC126To250, "250"),
		above(BucketCC251Plus),
	},
}

// ClassifyAttribute maps the class-defining attribute to its bucket.
// Non-positive values and unknown classes have no bucket.
func ClassifyAttribute(class vehicle.Class, value decimal.Decimal) (AttributeBucket, bool) {
	bounds, ok := classBounds[class]
	if !ok || !value.IsPositive() {
		return "", false
	}
	for _, b := range bounds {
		if b.unbounded || value.LessThanOrEqual(b.max) {
			return b.code, true
		}
	}
	return "", false
}

// BucketsFor lists the attribute buckets of a class in ascending order.
func BucketsFor(class vehicle.Class) []AttributeBucket {
	bounds := classBounds[class]
	out := make([]AttributeBucket, 0, len(bounds))
	for _, b := range bounds {
		out = append(out, b.code)
	}
	return out
}

// ValidFor reports whether b is a bucket of class.
func (b AttributeBucket) ValidFor(class vehicle.Class) bool {
	for _, code := range BucketsFor(class) {
		if code == b {
			return true
		}
	}
	return false
}
