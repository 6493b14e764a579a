package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// setFlags points the commands at a fast genesis file and a fresh db path.
func setFlags(t *testing.T) {
	t.Helper()

	gen := genesis.Default()
	gen.Difficulty = 1

	data, err := json.Marshal(gen)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to marshal the genesis: %v", failed, err)
	}

	dir := t.TempDir()
	genesisPath = filepath.Join(dir, "genesis.json")
	if err := os.WriteFile(genesisPath, data, 0600); err != nil {
		t.Fatalf("\t%s\tShould be able to write the genesis: %v", failed, err)
	}

	dbPath = filepath.Join(dir, "blocks")
	minerName = "miner"
	minerBalance = 1000
	numBlocks = 3
	seed = 42
	workers = 2
	useECDSA = false
	keyDir = ""
	verbose = false
}

func Test_SimulateAndVerify(t *testing.T) {
	t.Log("Given the need to run a trading session and verify it from disk.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen simulating three blocks.", testID)
		{
			setFlags(t)

			var out bytes.Buffer
			if err := simulate(context.Background(), &out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to simulate: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to simulate.", success, testID)

			if !strings.Contains(out.String(), "Total blocks: 4") {
				t.Fatalf("\t%s\tTest %d:\tShould mine three blocks after genesis:\n%s", failed, testID, out.String())
			}
			t.Logf("\t%s\tTest %d:\tShould mine three blocks after genesis.", success, testID)

			if !strings.Contains(out.String(), "NETWORK sent 50 BEK to miner") {
				t.Fatalf("\t%s\tTest %d:\tShould reward the miner:\n%s", failed, testID, out.String())
			}
			t.Logf("\t%s\tTest %d:\tShould reward the miner.", success, testID)

			out.Reset()
			if err := verify(&out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould verify the stored chain: %v", failed, testID, err)
			}
			if !strings.Contains(out.String(), "blocks[4]") {
				t.Fatalf("\t%s\tTest %d:\tShould verify every block: %s", failed, testID, out.String())
			}
			t.Logf("\t%s\tTest %d:\tShould verify the stored chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a stored block is tampered with.", testID)
		{
			setFlags(t)
			numBlocks = 1

			var out bytes.Buffer
			if err := simulate(context.Background(), &out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to simulate: %v", failed, testID, err)
			}

			path := filepath.Join(dbPath, "1.json")
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read block 1: %v", failed, testID, err)
			}

			tampered := strings.Replace(string(data), `"amount": 50`, `"amount": 5000`, 1)
			if tampered == string(data) {
				t.Fatalf("\t%s\tTest %d:\tShould find the reward to tamper with:\n%s", failed, testID, data)
			}
			if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to rewrite block 1: %v", failed, testID, err)
			}

			if err := verify(&out); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject the tampered chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the tampered chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen signing with ECDSA keys.", testID)
		{
			setFlags(t)
			dbPath = ""
			useECDSA = true
			keyDir = t.TempDir()

			key := "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
			if err := os.WriteFile(filepath.Join(keyDir, minerName+".ecdsa"), []byte(key), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the miner key: %v", failed, testID, err)
			}

			var out bytes.Buffer
			if err := simulate(context.Background(), &out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to simulate: %v", failed, testID, err)
			}

			if !strings.Contains(out.String(), "ECDSA signatures") {
				t.Fatalf("\t%s\tTest %d:\tShould verify the signatures:\n%s", failed, testID, out.String())
			}
			t.Logf("\t%s\tTest %d:\tShould verify the signatures.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen resuming a stored chain with ECDSA keys.", testID)
		{
			setFlags(t)
			useECDSA = true
			keyDir = filepath.Join(t.TempDir(), "keys")

			var out bytes.Buffer
			if err := simulate(context.Background(), &out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to run the first session: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to run the first session.", success, testID)

			first, err := signature.LoadECDSA(filepath.Join(keyDir, minerName+".ecdsa"))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould save the generated miner key: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould save the generated miner key.", success, testID)

			out.Reset()
			if err := simulate(context.Background(), &out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to run the second session: %v", failed, testID, err)
			}
			if !strings.Contains(out.String(), "Total blocks: 7") {
				t.Fatalf("\t%s\tTest %d:\tShould extend the stored chain:\n%s", failed, testID, out.String())
			}
			t.Logf("\t%s\tTest %d:\tShould be able to run the second session.", success, testID)

			second, err := signature.LoadECDSA(filepath.Join(keyDir, minerName+".ecdsa"))
			if err != nil || second.Address() != first.Address() {
				t.Fatalf("\t%s\tTest %d:\tShould reuse the saved miner key: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reuse the saved miner key.", success, testID)

			out.Reset()
			if err := verify(&out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould verify the stored chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould verify the stored chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen switching a placeholder chain to ECDSA keys.", testID)
		{
			setFlags(t)

			var out bytes.Buffer
			if err := simulate(context.Background(), &out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to run the placeholder session: %v", failed, testID, err)
			}

			useECDSA = true
			out.Reset()
			if err := simulate(context.Background(), &out); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to resume with generated keys: %v", failed, testID, err)
			}
			if !strings.Contains(out.String(), "Total blocks: 7") {
				t.Fatalf("\t%s\tTest %d:\tShould extend the stored chain:\n%s", failed, testID, out.String())
			}
			t.Logf("\t%s\tTest %d:\tShould be able to resume with generated keys.", success, testID)
		}
	}
}
