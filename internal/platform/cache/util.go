package cache

import (
	"time"
)

// RefreshHour は日次データが更新される時刻（韓国時間）です。
const RefreshHour = 8

// seoul は取引所のタイムゾーンです。tzdataが無い環境ではKSTの固定オフセットを使います。
var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}()

// TimeUntilNext はnowから次のhour時（locの時刻）までの期間を返します。
// nowがちょうどhour時の場合は翌日までの期間を返します。
func TimeUntilNext(now time.Time, hour int, loc *time.Location) time.Duration {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// TimeUntilNext8AM は次の午前8時（韓国時間）までの期間を返します。
func TimeUntilNext8AM() time.Duration {
	return TimeUntilNext(time.Now(), RefreshHour, seoul)
}
