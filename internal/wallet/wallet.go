// Package wallet loads or creates the node operator's hot wallet and
// persists it to disk.
package wallet

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/michloj571/kingcoin/internal/ledger"
)

const rsaKeyBits = 2048

// persisted is the on-disk form of a HotWallet: the RSA private key in PKCS1
// DER, hex encoded, plus the creation seed the address was derived from.
type persisted struct {
	PrivateKeyDER string `json:"private_key_der"`
	CreationSeed  string `json:"creation_seed"`
}

// LoadOrCreate reads the wallet at path, or generates and persists a new one
// if the file does not exist.
func LoadOrCreate(path string) (*ledger.HotWallet, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading wallet file: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("WALLET: could not parse wallet file, generating a new one: %v", err)
		return create(path)
	}

	der, err := hex.DecodeString(p.PrivateKeyDER)
	if err != nil {
		return nil, fmt.Errorf("decoding stored private key: %w", err)
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parsing stored private key: %w", err)
	}

	wallet := ledger.NewHotWallet(privateKey, p.CreationSeed)
	log.Printf("WALLET: loaded wallet %s", wallet.Address.Hex())
	return wallet, nil
}

func create(path string) (*ledger.HotWallet, error) {
	log.Println("WALLET: could not find wallet, generating new")
	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating private key: %w", err)
	}
	seed := uuid.NewString()
	wallet := ledger.NewHotWallet(privateKey, seed)
	log.Printf("WALLET: generated wallet address %s", wallet.Address.Hex())

	if err := save(path, privateKey, seed); err != nil {
		return nil, fmt.Errorf("saving wallet: %w", err)
	}
	return wallet, nil
}

func save(path string, privateKey *rsa.PrivateKey, seed string) error {
	der := x509.MarshalPKCS1PrivateKey(privateKey)
	p := persisted{PrivateKeyDER: hex.EncodeToString(der), CreationSeed: seed}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
