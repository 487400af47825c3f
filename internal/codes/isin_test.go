package codes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/dyike/bestfour/internal/models"
)

const isinPage = `<html><head><meta charset="big5"></head><body>
<table class='h4' align=center cellSpacing=3 cellPadding=2 width=750 border=0>
<tr align=center><td bgcolor=#D5FFD5>有價證券代號及名稱 </td><td bgcolor=#D5FFD5>國際證券辨識號碼(ISIN Code)</td><td bgcolor=#D5FFD5>上市日</td><td bgcolor=#D5FFD5>市場別</td><td bgcolor=#D5FFD5>產業別</td><td bgcolor=#D5FFD5>CFICode</td><td bgcolor=#D5FFD5>備註</td></tr>
<tr><td bgcolor=#FAFAD2 colspan=7 ><B> 股票 <B> </td></tr>
<tr><td bgcolor=#FAFAD2>1101　台泥</td><td bgcolor=#FAFAD2>TW0001101004</td><td bgcolor=#FAFAD2>1962/02/09</td><td bgcolor=#FAFAD2>上市</td><td bgcolor=#FAFAD2>水泥工業</td><td bgcolor=#FAFAD2>ESVUFR</td><td bgcolor=#FAFAD2></td></tr>
<tr><td bgcolor=#FAFAD2>2330　台積電</td><td bgcolor=#FAFAD2>TW0002330008</td><td bgcolor=#FAFAD2>1994/09/05</td><td bgcolor=#FAFAD2>上市</td><td bgcolor=#FAFAD2>半導體業</td><td bgcolor=#FAFAD2>ESVUFR</td><td bgcolor=#FAFAD2></td></tr>
<tr><td bgcolor=#FAFAD2 colspan=7 ><B> ETF <B> </td></tr>
<tr><td bgcolor=#FAFAD2>0050　元大台灣50</td><td bgcolor=#FAFAD2>TW0000050004</td><td bgcolor=#FAFAD2>2003/06/30</td><td bgcolor=#FAFAD2>上市</td><td bgcolor=#FAFAD2></td><td bgcolor=#FAFAD2>CEOGEU</td><td bgcolor=#FAFAD2></td></tr>
</table></body></html>`

func TestISINClientParsesBig5Page(t *testing.T) {
	encoded, err := traditionalchinese.Big5.NewEncoder().String(isinPage)
	require.NoError(t, err)

	var mode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mode = r.URL.Query().Get("strMode")
		assert.Equal(t, isinPath, r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=big5")
		_, _ = w.Write([]byte(encoded))
	}))
	defer srv.Close()

	client := NewISINClient(srv.URL, "", 0, nil)
	entries, err := client.Fetch(context.Background(), ModeListed)
	require.NoError(t, err)

	assert.Equal(t, ModeListed, mode)
	require.Len(t, entries, 3)
	assert.Equal(t, models.CodeInfo{
		Type:   "股票",
		Code:   "2330",
		Name:   "台積電",
		ISIN:   "TW0002330008",
		Start:  "1994/09/05",
		Market: models.MarketListed,
		Group:  "半導體業",
		CFI:    "ESVUFR",
	}, entries[1])
	assert.Equal(t, "ETF", entries[2].Type)
	assert.Equal(t, "元大台灣50", entries[2].Name)
}

func TestISINClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewISINClient(srv.URL, "", 0, nil).Fetch(context.Background(), ModeOTC)
	assert.Error(t, err)
}
