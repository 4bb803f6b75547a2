package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Payment mode satellites: each non-cash payment owns exactly one record in
// the table for its mode, keyed by the payment id itself. Cash payments own
// nothing. Dispatch runs inside the caller's transaction so a bad mode rolls
// the whole payment back.

// createSatellite inserts the satellite record matching input.Mode.
func createSatellite(ctx context.Context, tx pgx.Tx, paymentID int, input PaymentInput) error {
	switch input.Mode {
	case ModeCash:
		return nil
	case ModeCheque:
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_cheques (payment_id, cheque_number, cheque_date)
			VALUES ($1, $2, $3)`,
			paymentID, input.Cheque.Number, input.Cheque.Date,
		); err != nil {
			return fmt.Errorf("insert payment cheque: %w", err)
		}
		return nil
	case ModeOnlineTransfer:
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_online_transfers (payment_id, reference_number, transfer_date)
			VALUES ($1, $2, $3)`,
			paymentID, input.OnlineTransfer.ReferenceNumber, input.OnlineTransfer.Date,
		); err != nil {
			return fmt.Errorf("insert payment online transfer: %w", err)
		}
		return nil
	case ModePDC:
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_pdcs (payment_id, pdc_number, pdc_date, deposit_date, credit_date)
			VALUES ($1, $2, $3, $4, $5)`,
			paymentID, input.PDC.Number, input.PDC.Date, input.PDC.DepositDate, input.PDC.CreditDate,
		); err != nil {
			return fmt.Errorf("insert payment pdc: %w", err)
		}
		return nil
	default:
		return Invalidf("unrecognized payment mode %q", input.Mode)
	}
}

// upsertSatellite replaces the satellite record for a corrected payment.
// Satellites of other modes are removed first, so a payment switched to
// cash ends up with none at all.
func upsertSatellite(ctx context.Context, tx pgx.Tx, paymentID int, input PaymentInput) error {
	if err := dropStaleSatellites(ctx, tx, paymentID, input.Mode); err != nil {
		return err
	}

	switch input.Mode {
	case ModeCash:
		return nil
	case ModeCheque:
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_cheques (payment_id, cheque_number, cheque_date)
			VALUES ($1, $2, $3)
			ON CONFLICT (payment_id) DO UPDATE
			SET cheque_number = EXCLUDED.cheque_number, cheque_date = EXCLUDED.cheque_date`,
			paymentID, input.Cheque.Number, input.Cheque.Date,
		); err != nil {
			return fmt.Errorf("upsert payment cheque: %w", err)
		}
		return nil
	case ModeOnlineTransfer:
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_online_transfers (payment_id, reference_number, transfer_date)
			VALUES ($1, $2, $3)
			ON CONFLICT (payment_id) DO UPDATE
			SET reference_number = EXCLUDED.reference_number, transfer_date = EXCLUDED.transfer_date`,
			paymentID, input.OnlineTransfer.ReferenceNumber, input.OnlineTransfer.Date,
		); err != nil {
			return fmt.Errorf("upsert payment online transfer: %w", err)
		}
		return nil
	case ModePDC:
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_pdcs (payment_id, pdc_number, pdc_date, deposit_date, credit_date)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (payment_id) DO UPDATE
			SET pdc_number = EXCLUDED.pdc_number, pdc_date = EXCLUDED.pdc_date,
			    deposit_date = EXCLUDED.deposit_date, credit_date = EXCLUDED.credit_date`,
			paymentID, input.PDC.Number, input.PDC.Date, input.PDC.DepositDate, input.PDC.CreditDate,
		); err != nil {
			return fmt.Errorf("upsert payment pdc: %w", err)
		}
		return nil
	default:
		return Invalidf("unrecognized payment mode %q", input.Mode)
	}
}

// dropStaleSatellites deletes satellite rows whose table does not match the
// payment's (possibly new) mode.
func dropStaleSatellites(ctx context.Context, tx pgx.Tx, paymentID int, keep PaymentMode) error {
	tables := map[PaymentMode]string{
		ModeCheque:         "payment_cheques",
		ModeOnlineTransfer: "payment_online_transfers",
		ModePDC:            "payment_pdcs",
	}
	for mode, table := range tables {
		if mode == keep {
			continue
		}
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE payment_id = $1`, paymentID); err != nil {
			return fmt.Errorf("remove stale %s record: %w", table, err)
		}
	}
	return nil
}
