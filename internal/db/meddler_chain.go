package db

import (
	"database/sql"
	"fmt"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/russross/meddler"
)

func init() {
	meddler.Register("blockhash", BlockHashMeddler{})
	meddler.Register("txhash", TxHashMeddler{})
}

// BlockHashMeddler stores chain.BlockHash as hex text. NULL reads as the zero hash.
type BlockHashMeddler struct{}

func (BlockHashMeddler) PreRead(fieldAddr any) (scanTarget any, err error) {
	return new(sql.NullString), nil
}

func (BlockHashMeddler) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*chain.BlockHash)
	if !ok {
		return fmt.Errorf("expected *chain.BlockHash, got %T", fieldAddr)
	}

	if !ns.Valid || ns.String == "" {
		*ptr = chain.BlockHash{}
		return nil
	}

	hash, err := chain.ParseBlockHash(ns.String)
	if err != nil {
		return err
	}
	*ptr = hash

	return nil
}

func (BlockHashMeddler) PreWrite(field any) (saveValue any, err error) {
	hash, ok := field.(chain.BlockHash)
	if !ok {
		return nil, fmt.Errorf("expected chain.BlockHash, got %T", field)
	}

	return hash.String(), nil
}

// TxHashMeddler stores chain.TxHash as hex text.
type TxHashMeddler struct{}

func (TxHashMeddler) PreRead(fieldAddr any) (scanTarget any, err error) {
	return new(string), nil
}

func (TxHashMeddler) PostRead(fieldAddr, scanTarget any) error {
	ptr, ok := fieldAddr.(*chain.TxHash)
	if !ok {
		return fmt.Errorf("expected *chain.TxHash, got %T", fieldAddr)
	}

	hash, err := chain.ParseTxHash(*scanTarget.(*string))
	if err != nil {
		return err
	}
	*ptr = hash

	return nil
}

func (TxHashMeddler) PreWrite(field any) (saveValue any, err error) {
	hash, ok := field.(chain.TxHash)
	if !ok {
		return nil, fmt.Errorf("expected chain.TxHash, got %T", field)
	}

	return hash.String(), nil
}
