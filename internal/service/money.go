package service

import (
    "github.com/shopspring/decimal"

    "github.com/iliyamo/cinema-booking/internal/model"
)

var (
    serviceFeeRate = decimal.RequireFromString("0.05")
    taxRate        = decimal.RequireFromString("0.08")
    vipMultiplier  = decimal.RequireFromString("1.5")
)

// ComputeTotals prices a cart.  Intermediate values keep full precision;
// each reported figure is rounded half away from zero to cents at the end.
func ComputeTotals(lines []model.CartLine) model.Totals {
    subtotal := decimal.Zero
    for _, l := range lines {
        subtotal = subtotal.Add(lineSubtotal(l))
    }
    fee := subtotal.Mul(serviceFeeRate)
    taxes := subtotal.Add(fee).Mul(taxRate)
    total := subtotal.Add(fee).Add(taxes)
    return model.Totals{
        Subtotal:   subtotal.Round(2),
        ServiceFee: fee.Round(2),
        Taxes:      taxes.Round(2),
        Total:      total.Round(2),
    }
}

func lineSubtotal(l model.CartLine) decimal.Decimal {
    return l.Price().Mul(decimal.NewFromInt(int64(l.Qty())))
}

// vipPrice is the seat price for VIP rows.
func vipPrice(base decimal.Decimal) decimal.Decimal {
    return base.Mul(vipMultiplier).Round(2)
}
