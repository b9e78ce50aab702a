package identifier

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/testutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type ticket struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:20;not null;uniqueIndex"`
}

// sequence devolve os códigos na ordem e repete o último.
type sequence struct {
	codes []string
	calls int
}

func (s *sequence) next() string {
	i := s.calls
	if i >= len(s.codes) {
		i = len(s.codes) - 1
	}
	s.calls++
	return s.codes[i]
}

func insertTicket(seq *sequence, out *string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		code := seq.next()
		if err := tx.Create(&ticket{Code: code}).Error; err != nil {
			return err
		}
		*out = code
		return nil
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	db := testutil.NewDB(t, &ticket{})
	seq := &sequence{codes: []string{"ABC234", "ABC234", "ABC234", "XYZ789"}}

	var first, second string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return Issue(tx, "código curto", 5, insertTicket(seq, &first))
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return Issue(tx, "código curto", 5, insertTicket(seq, &second))
	}))

	assert.Equal(t, "ABC234", first)
	assert.Equal(t, "XYZ789", second)
	assert.Equal(t, 4, seq.calls)

	var count int64
	db.Model(&ticket{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestIssueGivesUpAfterMaxAttempts(t *testing.T) {
	db := testutil.NewDB(t, &ticket{})
	require.NoError(t, db.Create(&ticket{Code: "SAME22"}).Error)
	seq := &sequence{codes: []string{"SAME22"}}

	var code string
	err := db.Transaction(func(tx *gorm.DB) error {
		return Issue(tx, "código curto", 3, insertTicket(seq, &code))
	})
	var ce *apperr.IdentifierCollisionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.Attempts)
	assert.Equal(t, 3, seq.calls)
}

func TestIssueDoesNotRetryOtherErrors(t *testing.T) {
	db := testutil.NewDB(t, &ticket{})
	calls := 0
	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		return Issue(tx, "código curto", 5, func(tx *gorm.DB) error {
			calls++
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIssuedCodesStayUniqueUnderRepeatedCollisions(t *testing.T) {
	db := testutil.NewDB(t, &ticket{})
	// alfabeto minúsculo força muitas colisões
	small := RandomCodes{ShortCodeLength: 2}
	seen := map[string]bool{}
	for i := 0; i < 60; i++ {
		var code string
		err := db.Transaction(func(tx *gorm.DB) error {
			return Issue(tx, "código curto", 200, func(tx *gorm.DB) error {
				c, err := small.ShortCode()
				if err != nil {
					return err
				}
				if err := tx.Create(&ticket{Code: c}).Error; err != nil {
					return err
				}
				code = c
				return nil
			})
		})
		require.NoError(t, err)
		require.False(t, seen[code], "duplicated %s", code)
		seen[code] = true
	}
	var count int64
	db.Model(&ticket{}).Count(&count)
	assert.Equal(t, int64(60), count)
}

// voucher é outra tabela com códigos próprios, sem unique entre as duas.
type voucher struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:20;not null"`
}

func reserveInto(seq *sequence, owner string, create func(tx *gorm.DB, code string) (uint, error)) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		code := seq.next()
		id, err := create(tx, code)
		if err != nil {
			return err
		}
		return Reserve(tx, code, owner, id)
	}
}

func TestReserveKeepsCodesUniqueAcrossTables(t *testing.T) {
	db := testutil.NewDB(t, &ticket{}, &voucher{}, &ShortCode{})
	newTicket := func(tx *gorm.DB, code string) (uint, error) {
		tk := ticket{Code: code}
		err := tx.Create(&tk).Error
		return tk.ID, err
	}
	newVoucher := func(tx *gorm.DB, code string) (uint, error) {
		v := voucher{Code: code}
		err := tx.Create(&v).Error
		return v.ID, err
	}

	seq := &sequence{codes: []string{"SHARE2", "SHARE2", "FRESH3"}}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return Issue(tx, "código curto", 5, reserveInto(seq, OwnerContract, newTicket))
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return Issue(tx, "código curto", 5, reserveInto(seq, OwnerIcContract, newVoucher))
	}))
	assert.Equal(t, 3, seq.calls)

	var vouchers []voucher
	require.NoError(t, db.Find(&vouchers).Error)
	require.Len(t, vouchers, 1)
	assert.Equal(t, "FRESH3", vouchers[0].Code)

	owner, err := Owner(db, "SHARE2")
	require.NoError(t, err)
	assert.Equal(t, OwnerContract, owner.OwnerType)
	owner, err = Owner(db, "FRESH3")
	require.NoError(t, err)
	assert.Equal(t, OwnerIcContract, owner.OwnerType)
	assert.Equal(t, vouchers[0].ID, owner.OwnerID)

	_, err = Owner(db, "NOPE22")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicate(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsDuplicate(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsDuplicate(errors.New("UNIQUE constraint failed: tickets.code")))
	assert.False(t, IsDuplicate(nil))
	assert.False(t, IsDuplicate(errors.New("other")))
}

func TestRandomCodes(t *testing.T) {
	g := RandomCodes{ShortCodeLength: 6}
	code, err := g.ShortCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Empty(t, strings.Trim(code, ShortCodeAlphabet))

	num, err := g.ContractNumber(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(num, "C-261015-"), num)
	assert.Len(t, num, len("C-261015-")+6)

	assert.NotEqual(t, g.QRToken(), g.QRToken())
	assert.Equal(t, "AB12CD", Normalize("  ab12cd "))
}
