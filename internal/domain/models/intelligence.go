package models

// Intelligence holds structured artifacts extracted from conversation text.
// Extraction is independent of detection output; it scans raw text.
type Intelligence struct {
	BankAccounts  []string `json:"bank_accounts"`
	IFSCCodes     []string `json:"ifsc_codes"`
	PhoneNumbers  []string `json:"phone_numbers"`
	UPIIDs        []string `json:"upi_ids"`
	PhishingLinks []string `json:"phishing_links"`
	Keywords      []string `json:"keywords"`
}

// Merge folds other into the receiver, deduplicating every list.
func (i *Intelligence) Merge(other Intelligence) {
	i.BankAccounts = mergeUnique(i.BankAccounts, other.BankAccounts)
	i.IFSCCodes = mergeUnique(i.IFSCCodes, other.IFSCCodes)
	i.PhoneNumbers = mergeUnique(i.PhoneNumbers, other.PhoneNumbers)
	i.UPIIDs = mergeUnique(i.UPIIDs, other.UPIIDs)
	i.PhishingLinks = mergeUnique(i.PhishingLinks, other.PhishingLinks)
	i.Keywords = mergeUnique(i.Keywords, other.Keywords)
}

// TotalEntities counts extracted entities, keywords excluded.
func (i Intelligence) TotalEntities() int {
	return len(i.BankAccounts) + len(i.IFSCCodes) + len(i.PhoneNumbers) +
		len(i.UPIIDs) + len(i.PhishingLinks)
}

// HasPaymentDetails reports whether actionable payment routing was captured:
// a UPI handle, or an account number together with its IFSC code.
func (i Intelligence) HasPaymentDetails() bool {
	if len(i.UPIIDs) > 0 {
		return true
	}
	return len(i.BankAccounts) > 0 && len(i.IFSCCodes) > 0
}

func mergeUnique(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range src {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
