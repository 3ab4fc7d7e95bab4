package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateBookingReference returns a human readable booking reference.
//
// Format: BK<unix-millis><4 chars of upper-case base36>
func GenerateBookingReference(now time.Time) string {
	return fmt.Sprintf("BK%d%s", now.UnixMilli(), randomSuffix(4))
}

// GenerateTestPaymentID mimics the id a gateway hands back in test mode.
func GenerateTestPaymentID(now time.Time) string {
	return fmt.Sprintf("pay_test_%d", now.UnixMilli())
}

func randomSuffix(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS source is broken
			idx = big.NewInt(time.Now().UnixNano() % int64(len(referenceAlphabet)))
		}
		sb.WriteByte(referenceAlphabet[idx.Int64()])
	}
	return sb.String()
}
