package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/lib/pq"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
)

// SQLSTATE コード
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeLockNotAvailable     pq.ErrorCode = "55P03"
	codeQueryCanceled        pq.ErrorCode = "57014"
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
	codeAdminShutdown        pq.ErrorCode = "57P01"
	codeCannotConnectNow     pq.ErrorCode = "57P03"

	codeInvalidTextRepresentation pq.ErrorCode = "22P02"

	classConnectionException   pq.ErrorClass = "08"
	classIntegrityViolation    pq.ErrorClass = "23"
	classInsufficientResources pq.ErrorClass = "53"
)

// persistenceError はドライバーのエラーを分類して PersistenceError に包む
// 既に分類済みのエラーやnilはそのまま返す
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *transaction.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return transaction.NewPersistenceError(classify(err), op, err)
}

func classify(err error) transaction.Kind {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeLockNotAvailable, codeQueryCanceled:
			return transaction.KindTimeout
		case codeSerializationFailure, codeDeadlockDetected:
			return transaction.KindConflict
		case codeAdminShutdown, codeCannotConnectNow:
			return transaction.KindConnectivity
		}
		switch pqErr.Code.Class() {
		case classConnectionException, classInsufficientResources:
			return transaction.KindConnectivity
		case classIntegrityViolation:
			return transaction.KindConstraint
		}
		return transaction.KindUnknown
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return transaction.KindTimeout
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return transaction.KindConnectivity
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return transaction.KindTimeout
		}
		return transaction.KindConnectivity
	}
	return transaction.KindUnknown
}

// isInvalidUUID はUUID列に不正な文字列を渡したときのエラーかを返す
func isInvalidUUID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeInvalidTextRepresentation
}
