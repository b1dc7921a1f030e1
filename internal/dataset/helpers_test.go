package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCSV = `Year,Quarter,State,Transaction_type,Transaction_count,Transaction_amount
2021,1,Karnataka,Peer-to-peer payments,100,1000.5
2021,1,Maharashtra,Merchant payments,50,400
2021,2,Karnataka,Merchant payments,120,900
2021,4,Maharashtra,Peer-to-peer payments,80,700
2022,1,Karnataka,Peer-to-peer payments,200,2100
2022,3,Tamil Nadu,Recharge & bill payments,30,
`

const sampleUsersCSV = `Brand,Year,Quarter,Transaction_count
Xiaomi,2021,1,600
Samsung,2021,1,300
Xiaomi,2021,2,400
Vivo,2021,2,200
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
